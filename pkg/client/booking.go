package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"roombook/pkg/model"
)

type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(httpClient *HttpClient) *BookingClient {
	return &BookingClient{
		httpClient: httpClient,
	}
}

// Create sends the booking and returns the stored copy. idempotencyKey may be
// empty.
func (c *BookingClient) Create(ctx context.Context, booking *model.Booking, idempotencyKey string) (*model.Booking, error) {
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}
	resp, err := c.httpClient.POSTWithHeaders(ctx, "/api/v1/bookings", booking, headers)
	if err != nil {
		return nil, err
	}
	if err := expect(resp, http.StatusCreated); err != nil {
		return nil, err
	}
	return c.DecodeBooking(resp)
}

func (c *BookingClient) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, *Metadata, error) {
	path := fmt.Sprintf("/api/v1/bookings?limit=%d&offset=%d", limit, offset)
	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	if err := expect(resp, http.StatusOK); err != nil {
		return nil, nil, err
	}
	return c.DecodeBookings(resp)
}

func (c *BookingClient) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	return c.bookingCall(ctx, http.MethodGet, "/api/v1/bookings/id/"+url.PathEscape(id), nil)
}

func (c *BookingClient) UpdateDates(ctx context.Context, id string, checkIn, checkOut model.Date) (*model.Booking, error) {
	path := "/api/v1/bookings/id/" + url.PathEscape(id) + "/dates"
	return c.bookingCall(ctx, http.MethodPatch, path, model.BookingDatesUpdate{
		CheckInDate:  checkIn,
		CheckOutDate: checkOut,
	})
}

func (c *BookingClient) Confirm(ctx context.Context, id string) (*model.Booking, error) {
	return c.bookingCall(ctx, http.MethodPost, "/api/v1/bookings/id/"+url.PathEscape(id)+"/confirm", nil)
}

func (c *BookingClient) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	return c.bookingCall(ctx, http.MethodPost, "/api/v1/bookings/id/"+url.PathEscape(id)+"/cancel", nil)
}

func (c *BookingClient) Delete(ctx context.Context, id string) error {
	resp, err := c.httpClient.DELETE(ctx, "/api/v1/bookings/id/"+url.PathEscape(id))
	if err != nil {
		return err
	}
	return expect(resp, http.StatusNoContent)
}

func (c *BookingClient) Availability(ctx context.Context, roomID string, checkIn, checkOut model.Date) (*model.Availability, error) {
	q := url.Values{}
	q.Set("check_in", checkIn.String())
	q.Set("check_out", checkOut.String())

	path := "/api/v1/rooms/" + url.PathEscape(roomID) + "/availability?" + q.Encode()
	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := expect(resp, http.StatusOK); err != nil {
		return nil, err
	}

	var availability model.Availability
	if err := decodeData(resp, &availability); err != nil {
		return nil, err
	}
	return &availability, nil
}

func (c *BookingClient) bookingCall(ctx context.Context, method, path string, body any) (*model.Booking, error) {
	resp, err := c.httpClient.request(ctx, method, path, body, nil)
	if err != nil {
		return nil, err
	}
	if err := expect(resp, http.StatusOK); err != nil {
		return nil, err
	}
	return c.DecodeBooking(resp)
}

func (c *BookingClient) DecodeBooking(resp *Response) (*model.Booking, error) {
	var booking model.Booking
	if err := decodeData(resp, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *BookingClient) DecodeBookings(resp *Response) ([]*model.Booking, *Metadata, error) {
	var wrapper struct {
		Data       json.RawMessage `json:"data"`
		TotalCount int64           `json:"total_count"`
		Limit      int             `json:"limit"`
		Offset     int64           `json:"offset"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated resp:\n%+v\n%s", resp.ToString(), err)
	}

	var bookings []*model.Booking
	if err := json.Unmarshal(wrapper.Data, &bookings); err != nil {
		return nil, nil, fmt.Errorf("could not decode booking list:\n%+v\n%s", resp.ToString(), err)
	}

	metadata := &Metadata{
		TotalCount: wrapper.TotalCount,
		Limit:      wrapper.Limit,
		Offset:     wrapper.Offset,
	}

	return bookings, metadata, nil
}

func decodeData(resp *Response, target any) error {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return fmt.Errorf("could not decode response wrapper:\n%+v\n%s", resp.ToString(), err)
	}
	if err := json.Unmarshal(wrapper.Data, target); err != nil {
		return fmt.Errorf("could not decode response data:\n%+v\n%s", resp.ToString(), err)
	}
	return nil
}
