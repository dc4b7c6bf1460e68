package ruckus

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// SortAscending is the only sort order apreboot requests.
const SortAscending = "ASC"

// Query is the body of the paginated /query endpoints.
type Query struct {
	PageSize  int    `json:"pageSize"`
	Page      int    `json:"page"`
	SortOrder string `json:"sortOrder"`
}

// Pagination is the page metadata some endpoints return.
type Pagination struct {
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
}

// Venue is a site grouping access points.
type Venue struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// VenuePage is one page of /venues/query.
type VenuePage struct {
	Data       []Venue     `json:"data"`
	TotalCount int         `json:"totalCount"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// NetworkStatus is the nested network block of an access point.
type NetworkStatus struct {
	IPAddress string `json:"ipAddress"`
}

// AccessPoint is one row of /venues/aps/query.
type AccessPoint struct {
	SerialNumber    string        `json:"serialNumber"`
	MACAddress      string        `json:"macAddress"`
	Model           string        `json:"model"`
	FirmwareVersion string        `json:"firmwareVersion"`
	Name            string        `json:"name"`
	VenueID         string        `json:"venueId"`
	Status          string        `json:"status"`
	NetworkStatus   NetworkStatus `json:"networkStatus"`
}

// AccessPointPage is one page of /venues/aps/query.
type AccessPointPage struct {
	Data       []AccessPoint `json:"data"`
	TotalCount int           `json:"totalCount"`
	Pagination *Pagination   `json:"pagination,omitempty"`
}

// totals returns the reported element and page counts, preferring the
// pagination block over totalCount.
func totals(p *Pagination, totalCount, pageSize int) (int, int) {
	elements := totalCount
	pages := 0
	if p != nil {
		if p.TotalElements > 0 {
			elements = p.TotalElements
		}
		pages = p.TotalPages
	}
	if pages == 0 && elements > 0 && pageSize > 0 {
		pages = (elements + pageSize - 1) / pageSize
	}
	return elements, pages
}

func normalizeQuery(q Query) Query {
	q.SortOrder = strings.ToUpper(q.SortOrder)
	if q.SortOrder == "" {
		q.SortOrder = SortAscending
	}
	return q
}

// ListVenues returns one page of venues.
func (c *Client) ListVenues(ctx context.Context, q Query) (VenuePage, error) {
	var page VenuePage
	if err := c.do(ctx, http.MethodPost, "/venues/query", normalizeQuery(q), &page); err != nil {
		return VenuePage{}, fmt.Errorf("listing venues: %w", err)
	}
	return page, nil
}

// ListAccessPoints returns one page of access points across all venues.
func (c *Client) ListAccessPoints(ctx context.Context, q Query) (AccessPointPage, error) {
	var page AccessPointPage
	if err := c.do(ctx, http.MethodPost, "/venues/aps/query", normalizeQuery(q), &page); err != nil {
		return AccessPointPage{}, fmt.Errorf("listing access points: %w", err)
	}
	return page, nil
}

type systemCommand struct {
	Type string `json:"type"`
}

func systemCommandPath(venueID, serial string) string {
	return fmt.Sprintf("/venues/%s/aps/%s/systemCommands", url.PathEscape(venueID), url.PathEscape(serial))
}

// RebootAccessPoint sends the REBOOT system command to one access point.
func (c *Client) RebootAccessPoint(ctx context.Context, venueID, serial string) error {
	path := systemCommandPath(venueID, serial)
	if err := c.do(ctx, http.MethodPatch, path, systemCommand{Type: "REBOOT"}, nil); err != nil {
		if KindOf(err) == KindNotFound {
			return fmt.Errorf("AP %s not found in venue %s: %w", serial, venueID, err)
		}
		return fmt.Errorf("rebooting AP %s: %w", serial, err)
	}
	return nil
}
