package vault

import "context"

// A Result is the boundary shape consumed by the HTTP layer fronting the
// store: a success flag, the typed records, an error message when the call
// failed and the skipped-record diagnostics of a partially reconstructed read.
type Result[T any] struct {
	Success bool            `json:"success"`
	Data    []T             `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Skipped []SkippedRecord `json:"skipped,omitempty"`
}

// FetchCompliance reads the compliance findings of a project. An empty
// projectID returns the whole collection.
func FetchCompliance(ctx context.Context, s *Store, projectID string) Result[ComplianceRecord] {
	return fetch(ctx, s, CollectionCompliance, projectID, complianceFromRecord)
}

// FetchSocials reads the social account links of a project.
func FetchSocials(ctx context.Context, s *Store, projectID string) Result[SocialRecord] {
	return fetch(ctx, s, CollectionSocials, projectID, socialFromRecord)
}

// FetchLeads reads the outreach leads of a project.
func FetchLeads(ctx context.Context, s *Store, projectID string) Result[LeadRecord] {
	return fetch(ctx, s, CollectionLeads, projectID, leadFromRecord)
}

// FetchLogs reads the execution logs of a project.
func FetchLogs(ctx context.Context, s *Store, projectID string) Result[LogRecord] {
	return fetch(ctx, s, CollectionLogs, projectID, logFromRecord)
}

// FetchStories reads the stories of a project.
func FetchStories(ctx context.Context, s *Store, projectID string) Result[StoryRecord] {
	return fetch(ctx, s, CollectionStories, projectID, storyFromRecord)
}

// FetchGrants reads the grant applications of a project.
func FetchGrants(ctx context.Context, s *Store, projectID string) Result[GrantRecord] {
	return fetch(ctx, s, CollectionGrants, projectID, grantFromRecord)
}

// FetchCreating reads the creation progress entries of a project.
func FetchCreating(ctx context.Context, s *Store, projectID string) Result[CreatingRecord] {
	return fetch(ctx, s, CollectionCreating, projectID, creatingFromRecord)
}

// fetch is the fixed partial application of Store.Read every accessor shares.
// Filtering by project is an equality match applied after reconstruction.
func fetch[T any](ctx context.Context, s *Store, collection, projectID string, decode func(Record) T) Result[T] {
	var filter map[string]string
	if projectID != "" {
		filter = map[string]string{"project_id": projectID}
	}

	result, err := s.Read(ctx, collection, filter)
	if err != nil {
		return Result[T]{Error: err.Error()}
	}

	data := make([]T, 0, len(result.Records))
	for _, record := range result.Records {
		data = append(data, decode(record))
	}

	return Result[T]{Success: true, Data: data, Skipped: result.Skipped}
}
