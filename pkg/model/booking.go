package model

import (
	"time"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// ActiveStatuses are the statuses that hold a room. Pending bookings count as
// well as confirmed ones.
var ActiveStatuses = []string{StatusPending, StatusConfirmed}

func IsActiveStatus(status string) bool {
	return status == StatusPending || status == StatusConfirmed
}

type Booking struct {
	ID                 string    `json:"id,omitempty" bson:"_id,omitempty"`
	RoomID             string    `json:"room_id" bson:"room_id" validate:"required,max=64"`
	CustomerName       string    `json:"customer_name" bson:"customer_name" validate:"required,min=2,max=100"`
	CustomerAge        int       `json:"customer_age" bson:"customer_age" validate:"required,gte=18,lte=130"`
	CustomerAddress    string    `json:"customer_address" bson:"customer_address" validate:"required,max=300"`
	CustomerMobileNo   string    `json:"customer_mobile_no" bson:"customer_mobile_no" validate:"required,len=10,digits"`
	CustomerNationalID string    `json:"customer_national_id" bson:"customer_national_id" validate:"required,len=12,digits"`
	CheckInDate        Date      `json:"check_in_date" bson:"check_in_date"`
	CheckOutDate       Date      `json:"check_out_date" bson:"check_out_date"`
	Status             string    `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled"`
	CreatedAt          time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" bson:"updated_at"`
}

func (b *Booking) IsActive() bool {
	return IsActiveStatus(b.Status)
}

// Nights returns the room nights this booking occupies.
func (b *Booking) Nights() int {
	return b.CheckInDate.DaysUntil(b.CheckOutDate)
}

type BookingDatesUpdate struct {
	CheckInDate  Date `json:"check_in_date"`
	CheckOutDate Date `json:"check_out_date"`
}

type Availability struct {
	RoomID       string `json:"room_id"`
	CheckInDate  Date   `json:"check_in_date"`
	CheckOutDate Date   `json:"check_out_date"`
	Available    bool   `json:"available"`
}
