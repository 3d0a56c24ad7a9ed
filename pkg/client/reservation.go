package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"roomres/pkg/model"
	"strconv"
	"time"
)

// ReservationClient talks to the reservations HTTP API.
type ReservationClient struct {
	httpClient *HttpClient
}

func NewReservationClient(baseUrl, token string) *ReservationClient {
	httpClient := NewHttpClient(baseUrl)
	httpClient.SetToken(token)
	return &ReservationClient{
		httpClient: httpClient,
	}
}

func reservationsPath(resource string) string {
	return "/api/v1/resources/" + url.PathEscape(resource) + "/reservations"
}

func (c *ReservationClient) Reserve(ctx context.Context, resource string, body any) (*Response, error) {
	return c.httpClient.POST(ctx, reservationsPath(resource), body)
}

func (c *ReservationClient) ReserveIdempotent(ctx context.Context, resource string, body any, key string) (*Response, error) {
	return c.httpClient.POSTWithHeaders(ctx, reservationsPath(resource), body, map[string]string{
		"Idempotency-Key": key,
	})
}

func (c *ReservationClient) ReserveRaw(ctx context.Context, resource string, rawBody []byte) (*Response, error) {
	return c.httpClient.POSTRaw(ctx, reservationsPath(resource), rawBody)
}

func (c *ReservationClient) GetByID(ctx context.Context, resource string, id int64) (*Response, error) {
	return c.httpClient.GET(ctx, reservationsPath(resource)+"/id/"+strconv.FormatInt(id, 10))
}

func (c *ReservationClient) Delete(ctx context.Context, resource string, id int64) (*Response, error) {
	return c.httpClient.DELETE(ctx, reservationsPath(resource)+"/id/"+strconv.FormatInt(id, 10))
}

func (c *ReservationClient) List(ctx context.Context, resource, startDate, endDate string) (*Response, error) {
	q := url.Values{}
	q.Set("start_date", startDate)
	if endDate != "" {
		q.Set("end_date", endDate)
	}
	return c.httpClient.GET(ctx, reservationsPath(resource)+"?"+q.Encode())
}

func (c *ReservationClient) ListForInterval(ctx context.Context, resource, kind, startDate string) (*Response, error) {
	q := url.Values{}
	q.Set("start_date", startDate)
	return c.httpClient.GET(ctx, reservationsPath(resource)+"/interval/"+url.PathEscape(kind)+"?"+q.Encode())
}

func (c *ReservationClient) Resources(ctx context.Context) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/resources")
}

func (c *ReservationClient) WaitForHealthy(maxWait time.Duration) error {
	return c.httpClient.WaitForHealthy(maxWait)
}

func (c *ReservationClient) DecodeReservation(resp *Response) (*model.Reservation, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode reservation wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var reservation model.Reservation
	if err := json.Unmarshal(wrapper.Data, &reservation); err != nil {
		return nil, fmt.Errorf("could not decode reservation json:\n%+v\n%s", resp.ToString(), err)
	}

	return &reservation, nil
}

func (c *ReservationClient) DecodeSchedule(resp *Response) (model.DaySchedule, error) {
	var wrapper struct {
		Data model.DaySchedule `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode schedule:\n%+v\n%s", resp.ToString(), err)
	}
	return wrapper.Data, nil
}
