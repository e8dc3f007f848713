package assistant

// ApplicantStatus is the pipeline stage of an applicant. The set is
// open-ended: the dashboard may surface stages beyond the well-known ones,
// and they are carried through verbatim.
type ApplicantStatus string

const (
	StatusNew         ApplicantStatus = "New"
	StatusReviewed    ApplicantStatus = "Reviewed"
	StatusInterviewed ApplicantStatus = "Interviewed"
	StatusRejected    ApplicantStatus = "Rejected"
	StatusHired       ApplicantStatus = "Hired"
)

// JobRef describes a job post as extracted from the employer dashboard.
// Every field besides Title is optional; extraction is best-effort and
// missing fields are tolerated rather than treated as errors.
type JobRef struct {
	JobID           string `json:"job_id,omitempty"`
	Title           string `json:"title"`
	Status          string `json:"status,omitempty"`
	ApplicantsCount int    `json:"applicants_count,omitempty"`
	PostedDate      string `json:"posted_date,omitempty"`
}

// ApplicantRecord is a read-only snapshot of one applicant row. It is
// produced only by the get-applicants action and superseded wholesale by the
// next fetch.
type ApplicantRecord struct {
	Name       string          `json:"name"`
	Position   string          `json:"position"`
	Date       string          `json:"date"`
	Status     ApplicantStatus `json:"status"`
	Experience int             `json:"experience"`
	Skills     []string        `json:"skills"`
}

// Session is the per-conversation state. It is created on the first command
// for a session ID and mutated only by the dispatcher handling that
// session's commands.
type Session struct {
	ID            string
	Authenticated bool

	// CurrentJob is the job most recently opened. CurrentApplicants is only
	// meaningful relative to CurrentJob; fetching applicants replaces the
	// slice wholesale, never merges.
	CurrentJob        *JobRef
	CurrentApplicants []ApplicantRecord
}
