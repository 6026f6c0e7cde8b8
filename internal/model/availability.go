package model

// TimeSlot is one offerable start time on a single day.
type TimeSlot struct {
    Timeslot      string `json:"timeslot"`       // HH:MM
    AlreadyBooked bool   `json:"already_booked"` // caller already holds an overlapping booking
}

// AvailableDuration reports whether one duration option can be booked.
// StartingTime and EndingTime are empty when many start times apply.
type AvailableDuration struct {
    Duration     Duration `json:"duration"`
    StartingTime string   `json:"starting_time"`
    EndingTime   string   `json:"ending_time"`
    Available    bool     `json:"available"`
}
