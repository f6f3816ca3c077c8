package models

// BookingState enumerates the steps of the booking flow.
type BookingState string

const (
	BookingStateStart             BookingState = "START"
	BookingStateAwaitDoctor       BookingState = "AWAIT_DOCTOR"
	BookingStateAwaitDate         BookingState = "AWAIT_DATE"
	BookingStateAwaitTime         BookingState = "AWAIT_TIME"
	BookingStateAwaitConfirmation BookingState = "AWAIT_CONFIRMATION"
	BookingStateConfirmed         BookingState = "CONFIRMED"
	BookingStateCancelled         BookingState = "CANCELLED"
	BookingStateError             BookingState = "ERROR"
)

// BookingStatus is the lifecycle of a single booking request.
type BookingStatus string

const (
	BookingDraft                BookingStatus = "DRAFT"
	BookingAwaitingConfirmation BookingStatus = "AWAITING_CONFIRMATION"
	BookingConfirmed            BookingStatus = "CONFIRMED"
	BookingFailed               BookingStatus = "FAILED"
)

// BookingRequest is the at-most-one in-flight booking of a session.
// Status only reaches CONFIRMED after a successful backend create call.
type BookingRequest struct {
	DoctorID   string        `json:"doctorId"`
	DoctorName string        `json:"doctorName,omitempty"`
	Date       string        `json:"date"` // YYYY-MM-DD
	Time       string        `json:"time"` // HH:MM
	Status     BookingStatus `json:"status"`
	Reference  string        `json:"reference,omitempty"` // backend booking id once confirmed
}

// DoctorInfo is a doctor record returned by the clinic backend.
type DoctorInfo struct {
	DoctorID        string  `json:"doctorId"`
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	Specialty       string  `json:"specialist"`
	Experience      int     `json:"experience,omitempty"`
	ConsultationFee float64 `json:"consultationFee,omitempty"`
	City            string  `json:"city,omitempty"`
	ClinicName      string  `json:"clinicName,omitempty"`
}

// DisplayName renders a doctor as shown to the user.
func (d DoctorInfo) DisplayName() string {
	name := "Dr. " + d.FirstName
	if d.LastName != "" {
		if d.FirstName != "" {
			name += " "
		} else {
			name = "Dr. "
		}
		name += d.LastName
	}
	return name
}

// SlotInfo is one availability slot for a doctor on a date.
type SlotInfo struct {
	SlotID    string `json:"slotId,omitempty"`
	Date      string `json:"date"`
	Time      string `json:"slotTime"`
	Available bool   `json:"available"`
}

// AppointmentInfo is an existing booking returned by the backend.
type AppointmentInfo struct {
	BookingID  string `json:"bookingId"`
	DoctorName string `json:"doctorName"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Status     string `json:"status,omitempty"`
}

// ReminderPayload is the task payload enqueued for appointment reminders.
type ReminderPayload struct {
	UserID     string `json:"userId"`
	BookingRef string `json:"bookingRef"`
	DoctorName string `json:"doctorName"`
	Date       string `json:"date"`
	Time       string `json:"time"`
}
