package planner

import "meetagent/app/service/booking"

type plannerResponse struct {
	Extracted struct {
		Email    *string `json:"email"`
		EmailOK  bool    `json:"email_ok"`
		Phone    *string `json:"phone"`
		PhoneOK  bool    `json:"phone_ok"`
		StartISO *string `json:"start_iso"`
		StartOK  bool    `json:"start_ok"`
		Title    *string `json:"title"`
		Name     *string `json:"name"`
		Confirm  *string `json:"confirm"`
	} `json:"extracted"`
	Notes struct {
		EmailReason *string `json:"email_reason"`
		PhoneReason *string `json:"phone_reason"`
		TimeReason  *string `json:"time_reason"`
	} `json:"notes"`
}

func (r plannerResponse) toExtraction() booking.Extraction {
	ex := booking.Extraction{
		Email:       deref(r.Extracted.Email),
		EmailOK:     r.Extracted.EmailOK,
		Phone:       deref(r.Extracted.Phone),
		PhoneOK:     r.Extracted.PhoneOK,
		StartISO:    deref(r.Extracted.StartISO),
		StartOK:     r.Extracted.StartOK,
		Title:       deref(r.Extracted.Title),
		Name:        deref(r.Extracted.Name),
		EmailReason: deref(r.Notes.EmailReason),
		PhoneReason: deref(r.Notes.PhoneReason),
		TimeReason:  deref(r.Notes.TimeReason),
	}

	switch deref(r.Extracted.Confirm) {
	case "yes":
		ex.Confirm = booking.IntentConfirm
	case "no":
		ex.Confirm = booking.IntentReject
	}

	return ex
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
