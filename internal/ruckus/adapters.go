package ruckus

import (
	"context"
	"fmt"

	"github.com/rshade/apreboot/internal/inventory"
)

// AccessPoints lists access points as inventory records.
type AccessPoints struct{ *Client }

// Venues lists venues as inventory groups.
type Venues struct{ *Client }

// ListRecords implements inventory.RecordLister.
func (a AccessPoints) ListRecords(ctx context.Context, req inventory.PageRequest) (inventory.RecordPage, error) {
	page, err := a.ListAccessPoints(ctx, Query{PageSize: req.PageSize, Page: req.Page, SortOrder: req.SortOrder})
	if err != nil {
		return inventory.RecordPage{}, err
	}

	records := make([]inventory.Record, 0, len(page.Data))
	for _, ap := range page.Data {
		records = append(records, inventory.Record{
			Serial:    ap.SerialNumber,
			MAC:       ap.MACAddress,
			Model:     ap.Model,
			Firmware:  ap.FirmwareVersion,
			Name:      ap.Name,
			VenueID:   ap.VenueID,
			IPAddress: ap.NetworkStatus.IPAddress,
			Status:    ap.Status,
		})
	}

	elements, pages := totals(page.Pagination, page.TotalCount, req.PageSize)
	return inventory.RecordPage{Records: records, TotalElements: elements, TotalPages: pages}, nil
}

// ListGroups implements inventory.GroupLister.
func (v Venues) ListGroups(ctx context.Context, req inventory.PageRequest) (inventory.GroupPage, error) {
	page, err := v.ListVenues(ctx, Query{PageSize: req.PageSize, Page: req.Page, SortOrder: req.SortOrder})
	if err != nil {
		return inventory.GroupPage{}, err
	}

	groups := make([]inventory.Group, 0, len(page.Data))
	for _, venue := range page.Data {
		groups = append(groups, inventory.Group{ID: venue.ID, Name: venue.Name})
	}

	elements, pages := totals(page.Pagination, page.TotalCount, req.PageSize)
	return inventory.GroupPage{Groups: groups, TotalElements: elements, TotalPages: pages}, nil
}

// InvokeAction reboots the access point identity in venue groupKey. It
// satisfies the batch runner's action interface.
func (c *Client) InvokeAction(ctx context.Context, groupKey, identity string) error {
	return c.RebootAccessPoint(ctx, groupKey, identity)
}

// DescribeAction renders the request InvokeAction would send.
func (c *Client) DescribeAction(groupKey, identity string) string {
	return fmt.Sprintf("PATCH %s%s {\"type\":\"REBOOT\"}", c.baseURL, systemCommandPath(groupKey, identity))
}
