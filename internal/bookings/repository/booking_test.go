package repository

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "roombook/internal/bookings/errors"
	"roombook/pkg/model"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestBuildOverlapFilter(t *testing.T) {
	filter := buildOverlapFilter("R1", day(4), day(6), "")

	if filter["room_id"] != "R1" {
		t.Errorf("room_id = %v", filter["room_id"])
	}
	status, ok := filter["status"].(bson.M)
	if !ok {
		t.Fatalf("status filter has type %T", filter["status"])
	}
	if in, _ := status["$in"].([]string); len(in) != 2 {
		t.Errorf("status should match both active statuses, got %v", status)
	}

	checkIn := filter["check_in_date"].(bson.M)
	if lt, _ := checkIn["$lt"].(model.Date); !lt.Equal(day(6)) {
		t.Errorf("check_in_date must be < requested checkout, got %v", checkIn)
	}
	checkOut := filter["check_out_date"].(bson.M)
	if gt, _ := checkOut["$gt"].(model.Date); !gt.Equal(day(4)) {
		t.Errorf("check_out_date must be > requested check-in, got %v", checkOut)
	}

	if _, ok := filter["_id"]; ok {
		t.Error("no exclusion expected without an id")
	}

	filter = buildOverlapFilter("R1", day(4), day(6), "abc")
	if id, _ := filter["_id"].(bson.M); id["$ne"] != "abc" {
		t.Errorf("_id exclusion = %v", filter["_id"])
	}
}

func TestBuildOverlapFilter_MarshalsDatesAsDatetimes(t *testing.T) {
	data, err := bson.Marshal(buildOverlapFilter("R1", day(4), day(6), ""))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	lt := bson.Raw(data).Lookup("check_in_date", "$lt")
	if _, ok := lt.TimeOK(); !ok {
		t.Errorf("expected a BSON datetime, got %s", lt.Type)
	}
}

func TestStoreError(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		wantUnavailable bool
	}{
		{name: "deadline", err: context.DeadlineExceeded, wantUnavailable: true},
		{name: "wrapped deadline", err: fmt.Errorf("find: %w", context.DeadlineExceeded), wantUnavailable: true},
		{name: "disconnected", err: mongo.ErrClientDisconnected, wantUnavailable: true},
		{name: "no documents", err: mongo.ErrNoDocuments, wantUnavailable: false},
		{name: "plain", err: errors.New("boom"), wantUnavailable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := storeError("op", tt.err)
			if got := errors.Is(err, bookingserrors.ErrStoreUnavailable); got != tt.wantUnavailable {
				t.Errorf("unavailable = %v, want %v (%v)", got, tt.wantUnavailable, err)
			}
			if !errors.Is(err, tt.err) {
				t.Error("cause must stay in the chain")
			}
		})
	}
}
