package model

import "time"

// RoomNight is a claim on one night of one room. The _id is derived from the
// room and the night, so the collection's primary key forbids two active
// bookings from holding the same night.
type RoomNight struct {
	ID        string    `bson:"_id" json:"id"`
	RoomID    string    `bson:"room_id" json:"room_id"`
	Night     Date      `bson:"night" json:"night"`
	BookingID string    `bson:"booking_id" json:"booking_id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func RoomNightKey(roomID string, night Date) string {
	return roomID + "|" + night.String()
}

// RoomNightsFor builds the claims an active booking must hold.
func RoomNightsFor(b *Booking, createdAt time.Time) []RoomNight {
	nights := Nights(b.CheckInDate, b.CheckOutDate)
	claims := make([]RoomNight, 0, len(nights))
	for _, night := range nights {
		claims = append(claims, RoomNight{
			ID:        RoomNightKey(b.RoomID, night),
			RoomID:    b.RoomID,
			Night:     night,
			BookingID: b.ID,
			CreatedAt: createdAt,
		})
	}
	return claims
}
