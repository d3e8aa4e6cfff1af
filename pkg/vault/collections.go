package vault

const (
	// CollectionCompliance holds compliance findings per project.
	CollectionCompliance = "compliance"
	// CollectionSocials holds linked social accounts and their credentials.
	CollectionSocials = "socials"
	// CollectionLeads holds outreach leads.
	CollectionLeads = "leads"
	// CollectionLogs holds execution logs.
	CollectionLogs = "logs"
	// CollectionStories holds narrative stories.
	CollectionStories = "stories"
	// CollectionGrants holds grant applications.
	CollectionGrants = "grants"
	// CollectionCreating holds project-creation progress entries.
	CollectionCreating = "creating"
)

// Collections lists every collection name known to the typed accessors.
var Collections = []string{
	CollectionCompliance,
	CollectionSocials,
	CollectionLeads,
	CollectionLogs,
	CollectionStories,
	CollectionGrants,
	CollectionCreating,
}

// defaultSensitive lists, per collection, the fields that are secret-shared
// when a configuration does not override them.
var defaultSensitive = map[string][]string{
	CollectionCompliance: {"company", "summary"},
	CollectionSocials:    {"access_token", "character"},
	CollectionLeads:      {"contact", "notes"},
	CollectionLogs:       {"detail"},
	CollectionStories:    {"content"},
	CollectionGrants:     {"application"},
	CollectionCreating:   {"detail"},
}

// DefaultSchemas builds a registry table from a collection-name to schema-id
// mapping, using the default sensitive field lists.
func DefaultSchemas(ids map[string]string) map[string]Schema {
	schemas := make(map[string]Schema, len(ids))
	for name, id := range ids {
		schemas[name] = Schema{ID: id, Sensitive: defaultSensitive[name]}
	}
	return schemas
}

// SensitiveFields returns the default sensitive field list of a collection.
func SensitiveFields(collection string) []string {
	return defaultSensitive[collection]
}

type (
	// A ComplianceRecord is one compliance finding for a project.
	ComplianceRecord struct {
		ID        string `json:"_id"`
		ProjectID string `json:"project_id"`
		Company   string `json:"company"`
		Category  string `json:"category"`
		Severity  string `json:"severity"`
		Summary   string `json:"summary"`
		Status    string `json:"status"`

		Extra map[string]string `json:"extra,omitempty"`
	}

	// A SocialRecord links a social account to a project.
	SocialRecord struct {
		ID          string `json:"_id"`
		ProjectID   string `json:"project_id"`
		Platform    string `json:"platform"`
		Handle      string `json:"handle"`
		AccessToken string `json:"access_token"`
		Character   string `json:"character"`
		AutoPost    string `json:"auto_post"`
		PostsPerDay string `json:"posts_per_day"`

		Extra map[string]string `json:"extra,omitempty"`
	}

	// A LeadRecord is one outreach lead of a project.
	LeadRecord struct {
		ID        string `json:"_id"`
		ProjectID string `json:"project_id"`
		Name      string `json:"name"`
		Contact   string `json:"contact"`
		Source    string `json:"source"`
		Status    string `json:"status"`
		Notes     string `json:"notes"`

		Extra map[string]string `json:"extra,omitempty"`
	}

	// A LogRecord is one execution log entry of a project.
	LogRecord struct {
		ID        string `json:"_id"`
		ProjectID string `json:"project_id"`
		Action    string `json:"action"`
		Level     string `json:"level"`
		Detail    string `json:"detail"`
		LoggedAt  string `json:"logged_at"`

		Extra map[string]string `json:"extra,omitempty"`
	}

	// A StoryRecord is one narrative story of a project.
	StoryRecord struct {
		ID        string `json:"_id"`
		ProjectID string `json:"project_id"`
		Title     string `json:"title"`
		Content   string `json:"content"`
		Status    string `json:"status"`

		Extra map[string]string `json:"extra,omitempty"`
	}

	// A GrantRecord is one grant application of a project.
	GrantRecord struct {
		ID          string `json:"_id"`
		ProjectID   string `json:"project_id"`
		Program     string `json:"program"`
		Amount      string `json:"amount"`
		Application string `json:"application"`
		Status      string `json:"status"`

		Extra map[string]string `json:"extra,omitempty"`
	}

	// A CreatingRecord is one project-creation progress entry.
	CreatingRecord struct {
		ID        string `json:"_id"`
		ProjectID string `json:"project_id"`
		Step      string `json:"step"`
		Status    string `json:"status"`
		Detail    string `json:"detail"`

		Extra map[string]string `json:"extra,omitempty"`
	}
)

// known maps the record's typed fields; the helpers below keep every unlisted
// field in Extra so unknown node-side fields survive a round trip.

func (r ComplianceRecord) known() map[string]string {
	return map[string]string{
		"project_id": r.ProjectID,
		"company":    r.Company,
		"category":   r.Category,
		"severity":   r.Severity,
		"summary":    r.Summary,
		"status":     r.Status,
	}
}

// ToRecord converts the compliance finding into a generic store record.
func (r ComplianceRecord) ToRecord() Record {
	return newRecord(r.ID, r.known(), r.Extra)
}

func complianceFromRecord(rec Record) ComplianceRecord {
	r := ComplianceRecord{
		ID:        rec.ID,
		ProjectID: rec.Fields["project_id"],
		Company:   rec.Fields["company"],
		Category:  rec.Fields["category"],
		Severity:  rec.Fields["severity"],
		Summary:   rec.Fields["summary"],
		Status:    rec.Fields["status"],
	}
	r.Extra = extraFields(rec, r.known())
	return r
}

func (r SocialRecord) known() map[string]string {
	return map[string]string{
		"project_id":    r.ProjectID,
		"platform":      r.Platform,
		"handle":        r.Handle,
		"access_token":  r.AccessToken,
		"character":     r.Character,
		"auto_post":     r.AutoPost,
		"posts_per_day": r.PostsPerDay,
	}
}

// ToRecord converts the social account link into a generic store record.
func (r SocialRecord) ToRecord() Record {
	return newRecord(r.ID, r.known(), r.Extra)
}

func socialFromRecord(rec Record) SocialRecord {
	r := SocialRecord{
		ID:          rec.ID,
		ProjectID:   rec.Fields["project_id"],
		Platform:    rec.Fields["platform"],
		Handle:      rec.Fields["handle"],
		AccessToken: rec.Fields["access_token"],
		Character:   rec.Fields["character"],
		AutoPost:    rec.Fields["auto_post"],
		PostsPerDay: rec.Fields["posts_per_day"],
	}
	r.Extra = extraFields(rec, r.known())
	return r
}

func (r LeadRecord) known() map[string]string {
	return map[string]string{
		"project_id": r.ProjectID,
		"name":       r.Name,
		"contact":    r.Contact,
		"source":     r.Source,
		"status":     r.Status,
		"notes":      r.Notes,
	}
}

// ToRecord converts the lead into a generic store record.
func (r LeadRecord) ToRecord() Record {
	return newRecord(r.ID, r.known(), r.Extra)
}

func leadFromRecord(rec Record) LeadRecord {
	r := LeadRecord{
		ID:        rec.ID,
		ProjectID: rec.Fields["project_id"],
		Name:      rec.Fields["name"],
		Contact:   rec.Fields["contact"],
		Source:    rec.Fields["source"],
		Status:    rec.Fields["status"],
		Notes:     rec.Fields["notes"],
	}
	r.Extra = extraFields(rec, r.known())
	return r
}

func (r LogRecord) known() map[string]string {
	return map[string]string{
		"project_id": r.ProjectID,
		"action":     r.Action,
		"level":      r.Level,
		"detail":     r.Detail,
		"logged_at":  r.LoggedAt,
	}
}

// ToRecord converts the log entry into a generic store record.
func (r LogRecord) ToRecord() Record {
	return newRecord(r.ID, r.known(), r.Extra)
}

func logFromRecord(rec Record) LogRecord {
	r := LogRecord{
		ID:        rec.ID,
		ProjectID: rec.Fields["project_id"],
		Action:    rec.Fields["action"],
		Level:     rec.Fields["level"],
		Detail:    rec.Fields["detail"],
		LoggedAt:  rec.Fields["logged_at"],
	}
	r.Extra = extraFields(rec, r.known())
	return r
}

func (r StoryRecord) known() map[string]string {
	return map[string]string{
		"project_id": r.ProjectID,
		"title":      r.Title,
		"content":    r.Content,
		"status":     r.Status,
	}
}

// ToRecord converts the story into a generic store record.
func (r StoryRecord) ToRecord() Record {
	return newRecord(r.ID, r.known(), r.Extra)
}

func storyFromRecord(rec Record) StoryRecord {
	r := StoryRecord{
		ID:        rec.ID,
		ProjectID: rec.Fields["project_id"],
		Title:     rec.Fields["title"],
		Content:   rec.Fields["content"],
		Status:    rec.Fields["status"],
	}
	r.Extra = extraFields(rec, r.known())
	return r
}

func (r GrantRecord) known() map[string]string {
	return map[string]string{
		"project_id":  r.ProjectID,
		"program":     r.Program,
		"amount":      r.Amount,
		"application": r.Application,
		"status":      r.Status,
	}
}

// ToRecord converts the grant application into a generic store record.
func (r GrantRecord) ToRecord() Record {
	return newRecord(r.ID, r.known(), r.Extra)
}

func grantFromRecord(rec Record) GrantRecord {
	r := GrantRecord{
		ID:          rec.ID,
		ProjectID:   rec.Fields["project_id"],
		Program:     rec.Fields["program"],
		Amount:      rec.Fields["amount"],
		Application: rec.Fields["application"],
		Status:      rec.Fields["status"],
	}
	r.Extra = extraFields(rec, r.known())
	return r
}

func (r CreatingRecord) known() map[string]string {
	return map[string]string{
		"project_id": r.ProjectID,
		"step":       r.Step,
		"status":     r.Status,
		"detail":     r.Detail,
	}
}

// ToRecord converts the creation progress entry into a generic store record.
func (r CreatingRecord) ToRecord() Record {
	return newRecord(r.ID, r.known(), r.Extra)
}

func creatingFromRecord(rec Record) CreatingRecord {
	r := CreatingRecord{
		ID:        rec.ID,
		ProjectID: rec.Fields["project_id"],
		Step:      rec.Fields["step"],
		Status:    rec.Fields["status"],
		Detail:    rec.Fields["detail"],
	}
	r.Extra = extraFields(rec, r.known())
	return r
}

func newRecord(id string, known, extra map[string]string) Record {
	fields := make(map[string]string, len(known)+len(extra))
	for k, v := range known {
		fields[k] = v
	}
	for k, v := range extra {
		fields[k] = v
	}
	return Record{ID: id, Fields: fields}
}

func extraFields(rec Record, known map[string]string) map[string]string {
	var extra map[string]string
	for k, v := range rec.Fields {
		if _, ok := known[k]; ok {
			continue
		}
		if extra == nil {
			extra = map[string]string{}
		}
		extra[k] = v
	}
	return extra
}
