// Package inventory fetches the access point inventory page by page.
//
// Sync pages through a RecordLister until a short page, tolerating failed
// pages, and enriches each record with its group (venue) name. BuildStatusCache
// takes a best-effort snapshot of live statuses for the batch runner.
package inventory

import "context"

// UnknownGroupName is used when a record's group cannot be resolved.
const UnknownGroupName = "Unknown"

// SortAscending is the sort order sent with every page request.
const SortAscending = "ASC"

// Record is one inventory entry.
type Record struct {
	Serial    string
	MAC       string
	Model     string
	Firmware  string
	Name      string
	VenueID   string
	VenueName string
	IPAddress string
	Status    string
}

// Group is a named grouping of records (a venue).
type Group struct {
	ID   string
	Name string
}

// PageRequest asks for one 0-based page.
type PageRequest struct {
	PageSize  int
	Page      int
	SortOrder string
}

// RecordPage is one page of records with the totals the service reported.
type RecordPage struct {
	Records       []Record
	TotalElements int
	TotalPages    int
}

// GroupPage is one page of groups.
type GroupPage struct {
	Groups        []Group
	TotalElements int
	TotalPages    int
}

// RecordLister lists inventory records page by page.
type RecordLister interface {
	ListRecords(ctx context.Context, req PageRequest) (RecordPage, error)
}

// GroupLister lists groups page by page.
type GroupLister interface {
	ListGroups(ctx context.Context, req PageRequest) (GroupPage, error)
}

// GroupCache remembers the last successfully fetched group names.
type GroupCache interface {
	Load(ctx context.Context) (map[string]string, bool)
	Store(ctx context.Context, names map[string]string)
}
