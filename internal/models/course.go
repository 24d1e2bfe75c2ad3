package models

import (
	"strings"
	"time"
)

// CourseTypeStatus represents whether a course type accepts enrollments.
type CourseTypeStatus string

// Course type statuses.
const (
	CourseTypeStatusActive   CourseTypeStatus = "active"
	CourseTypeStatusInactive CourseTypeStatus = "inactive"
)

// CourseTypeRecord is a backend course category such as "Cosmetología".
type CourseTypeRecord struct {
	ID         int              `json:"id"`
	Name       string           `json:"name"`
	CatalogKey *string          `json:"catalog_key,omitempty"`
	Status     CourseTypeStatus `json:"status"`
}

// Active reports whether the course type is accepting enrollments.
func (c CourseTypeRecord) Active() bool {
	return CourseTypeStatus(strings.ToLower(string(c.Status))) == CourseTypeStatusActive
}

// ScheduleShift is the time slot an applicant attends.
type ScheduleShift string

// Supported shifts.
const (
	ShiftMorning ScheduleShift = "morning"
	ShiftEvening ScheduleShift = "evening"
)

// Valid reports whether the shift is one of the known slots.
func (s ScheduleShift) Valid() bool {
	return s == ShiftMorning || s == ShiftEvening
}

// ParseScheduleShift normalises user input into a ScheduleShift.
func ParseScheduleShift(raw string) ScheduleShift {
	return ScheduleShift(strings.ToLower(strings.TrimSpace(raw)))
}

// OfferingStatus is the lifecycle state of a concrete offering.
type OfferingStatus string

// Offering statuses.
const (
	OfferingStatusActive    OfferingStatus = "active"
	OfferingStatusPlanned   OfferingStatus = "planned"
	OfferingStatusCancelled OfferingStatus = "cancelled"
)

// CourseOffering is one scheduled cohort of a course type.
type CourseOffering struct {
	CourseTypeID   int            `json:"course_type_id"`
	ScheduleShift  ScheduleShift  `json:"schedule_shift"`
	Status         OfferingStatus `json:"status"`
	SeatsAvailable int            `json:"seats_available"`
	SeatsCapacity  int            `json:"seats_capacity"`
}

// EffectiveSeats returns the seat count the engine trusts. Counts above capacity
// or below zero are treated as zero.
func (o CourseOffering) EffectiveSeats() int {
	if o.SeatsAvailable < 0 || o.SeatsAvailable > o.SeatsCapacity {
		return 0
	}
	return o.SeatsAvailable
}

// Clamped returns a copy with SeatsAvailable replaced by EffectiveSeats.
func (o CourseOffering) Clamped() CourseOffering {
	o.SeatsAvailable = o.EffectiveSeats()
	return o
}

// HasOpenSeats reports an active offering with at least one trusted seat.
func (o CourseOffering) HasOpenSeats() bool {
	return o.Status == OfferingStatusActive && o.EffectiveSeats() > 0
}

// BelongsTo reports whether the offering counts toward courseTypeID. Offerings
// without a course type id count toward every type.
func (o CourseOffering) BelongsTo(courseTypeID int) bool {
	return o.CourseTypeID == 0 || o.CourseTypeID == courseTypeID
}

// Planned reports an announced offering that has not started selling seats.
func (o CourseOffering) Planned() bool {
	return o.Status == OfferingStatusPlanned
}

// AvailabilitySnapshot is one fetch of the offerings summary.
type AvailabilitySnapshot struct {
	Offerings []CourseOffering `json:"offerings"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// ForCourseType returns the offerings belonging to the given course type,
// including those that carry no course type id.
func (s *AvailabilitySnapshot) ForCourseType(courseTypeID int) []CourseOffering {
	if s == nil {
		return nil
	}
	result := make([]CourseOffering, 0)
	for _, offering := range s.Offerings {
		if offering.BelongsTo(courseTypeID) {
			result = append(result, offering)
		}
	}
	return result
}

// SeatsForShift sums trusted active seats of a course type in one shift.
func (s *AvailabilitySnapshot) SeatsForShift(courseTypeID int, shift ScheduleShift) int {
	total := 0
	for _, offering := range s.ForCourseType(courseTypeID) {
		if offering.ScheduleShift == shift && offering.Status == OfferingStatusActive {
			total += offering.EffectiveSeats()
		}
	}
	return total
}

// CourseTypeSeats aggregates seats for the availability overview.
type CourseTypeSeats struct {
	CourseTypeID int                   `json:"course_type_id"`
	Available    int                   `json:"available"`
	Capacity     int                   `json:"capacity"`
	ByShift      map[ScheduleShift]int `json:"by_shift"`
	HasPlanned   bool                  `json:"has_planned"`
}

// SeatsByCourseType groups active seats per course type.
func (s *AvailabilitySnapshot) SeatsByCourseType() map[int]*CourseTypeSeats {
	result := make(map[int]*CourseTypeSeats)
	if s == nil {
		return result
	}
	for _, offering := range s.Offerings {
		entry, ok := result[offering.CourseTypeID]
		if !ok {
			entry = &CourseTypeSeats{CourseTypeID: offering.CourseTypeID, ByShift: map[ScheduleShift]int{}}
			result[offering.CourseTypeID] = entry
		}
		switch offering.Status {
		case OfferingStatusActive:
			seats := offering.EffectiveSeats()
			entry.Available += seats
			entry.Capacity += offering.SeatsCapacity
			entry.ByShift[offering.ScheduleShift] += seats
		case OfferingStatusPlanned:
			entry.HasPlanned = true
		}
	}
	return result
}

// NewOfferingsEvent announces that the offerings summary grew.
type NewOfferingsEvent struct {
	Delta      int       `json:"delta"`
	Total      int       `json:"total"`
	DetectedAt time.Time `json:"detected_at"`
}
