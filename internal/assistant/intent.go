package assistant

import (
	"regexp"
	"strconv"
	"strings"
)

// IntentKind enumerates the structured actions a free-text command can be
// classified into.
type IntentKind string

const (
	IntentLogin         IntentKind = "LOGIN"
	IntentOpenJob       IntentKind = "OPEN_JOB"
	IntentGetApplicants IntentKind = "GET_APPLICANTS"
	IntentSendInvite    IntentKind = "SEND_INVITE"
	IntentUpdateStatus  IntentKind = "UPDATE_STATUS"
	IntentSearchJobs    IntentKind = "SEARCH_JOBS"
	IntentCreateJob     IntentKind = "CREATE_JOB"
	IntentOpenNewTab    IntentKind = "OPEN_NEW_TAB"
	IntentSwitchTab     IntentKind = "SWITCH_TAB"
	IntentUnrecognized  IntentKind = "UNRECOGNIZED"
)

// Intent is the result of classifying a single command. Exactly one intent
// is produced per command; fields beyond Kind are populated per variant.
type Intent struct {
	Kind IntentKind

	JobTitle  string // OpenJob, GetApplicants, SendInvite, CreateJob
	Applicant string // SendInvite (empty means all applicants), UpdateStatus
	NewStatus string // UpdateStatus
	Query     string // SearchJobs
	URL       string // OpenNewTab (optional)
	InNewTab  bool   // OpenJob

	// TabIndex is the zero-based tab index for SwitchTab, normalized from
	// the one-based number the user speaks. A negative value means the tab
	// is addressed by TabTitle instead.
	TabIndex int
	TabTitle string
}

// Classification carries the winning intent plus diagnostics: the name of
// the rule that produced it and the names of every rule whose pattern
// matched, in priority order. Ties are always broken by rule order, never by
// specificity; Matches makes the ambiguity visible instead of silent.
type Classification struct {
	Intent  Intent
	Rule    string
	Matches []string
}

// rule is one entry in the ordered classification list. The build function
// may reject a raw regexp match (returning false) to let lower-priority
// rules claim the command.
type rule struct {
	name  string
	re    *regexp.Regexp
	build func(command string, groups []string) (Intent, bool)
}

// Classifier maps raw command strings to intents using an ordered,
// first-match-wins rule list. Classification is total: anything unmatched
// falls through to Unrecognized.
type Classifier struct {
	rules []rule
}

var (
	reNewTabSuffix = regexp.MustCompile(`(?i)\s+in\s+a\s+new\s+tab\s*$`)
	reNewTabTitle  = regexp.MustCompile(`(?i)^(?:a\s+)?new\s+tab\b`)
	reTabByNumber  = regexp.MustCompile(`(?i)\b(?:switch|go)\s+(?:back\s+)?to\s+(?:the\s+)?tab\s+(?:number\s+)?(\d+)\b`)
	reTabByTitle   = regexp.MustCompile(`(?i)\b(?:switch|go)\s+(?:back\s+)?to\s+(?:the\s+)?(.+?)\s+tab\b`)
	reTabByName    = regexp.MustCompile(`(?i)\b(?:switch|go)\s+(?:back\s+)?to\s+tab\s+(.+)$`)
)

// fillerSuffixes are trailing words users attach to job titles ("the QA
// Engineer role") that are not part of the title itself.
var fillerSuffixes = []string{"job", "role", "position", "post", "opening"}

// NewClassifier builds the default rule list. Order is significant and
// mirrors the documented priority: Login, OpenJob, GetApplicants,
// SendInvite, UpdateStatus, SearchJobs, CreateJob, OpenNewTab, SwitchTab.
func NewClassifier() *Classifier {
	return &Classifier{rules: []rule{
		{
			name: "login",
			re:   regexp.MustCompile(`(?i)\blog\s*in\b|\bsign\s*in\b`),
			build: func(_ string, _ []string) (Intent, bool) {
				return Intent{Kind: IntentLogin}, true
			},
		},
		{
			name: "open-job",
			re:   regexp.MustCompile(`(?i)\bopen\s+(?:the\s+)?(?:job\s+)?(?:post\s+)?(?:for\s+)?(?:the\s+)?(.+)$`),
			build: func(_ string, groups []string) (Intent, bool) {
				title := strings.TrimSpace(groups[1])
				inNewTab := false
				if reNewTabSuffix.MatchString(title) {
					title = strings.TrimSpace(reNewTabSuffix.ReplaceAllString(title, ""))
					inNewTab = true
				}
				// "open a new tab" belongs to the open-new-tab rule below.
				if reNewTabTitle.MatchString(title) {
					return Intent{}, false
				}
				title = trimTitleFiller(title)
				if title == "" {
					return Intent{}, false
				}
				return Intent{Kind: IntentOpenJob, JobTitle: title, InNewTab: inNewTab}, true
			},
		},
		{
			name: "get-applicants",
			re:   regexp.MustCompile(`(?i)\b(?:get|show|list|view)\s+(?:all\s+)?(?:the\s+)?applicants?\s+(?:for\s+)?(?:the\s+)?(?:job\s+)?(?:post\s+)?(?:for\s+)?(?:the\s+)?(.+)$`),
			build: func(_ string, groups []string) (Intent, bool) {
				title := trimTitleFiller(strings.TrimSpace(groups[1]))
				if title == "" {
					return Intent{}, false
				}
				return Intent{Kind: IntentGetApplicants, JobTitle: title}, true
			},
		},
		{
			name: "send-invite",
			re:   regexp.MustCompile(`(?i)\bsend\s+(?:an\s+)?(?:interview\s+)?invites?\b`),
			build: buildSendInvite,
		},
		{
			name: "update-status",
			re:   regexp.MustCompile(`(?i)\bupdate\s+(?:the\s+)?status\s+of\s+(.+?)\s+to\s+(.+)$`),
			build: func(_ string, groups []string) (Intent, bool) {
				return Intent{
					Kind:      IntentUpdateStatus,
					Applicant: strings.TrimSpace(groups[1]),
					NewStatus: strings.TrimSpace(groups[2]),
				}, true
			},
		},
		{
			name: "search-jobs",
			re:   regexp.MustCompile(`(?i)\bsearch\s+for\s+(?:jobs?\s+)?(?:matching\s+)?(.+)$`),
			build: func(_ string, groups []string) (Intent, bool) {
				return Intent{Kind: IntentSearchJobs, Query: strings.TrimSpace(groups[1])}, true
			},
		},
		{
			name: "create-job",
			re:   regexp.MustCompile(`(?i)\bcreate\s+(?:a\s+)?(?:new\s+)?job\s+(?:post\s+)?(?:for\s+)?(.+)$`),
			build: func(_ string, groups []string) (Intent, bool) {
				title := trimTitleFiller(strings.TrimSpace(groups[1]))
				if title == "" {
					return Intent{}, false
				}
				return Intent{Kind: IntentCreateJob, JobTitle: title}, true
			},
		},
		{
			name: "open-new-tab",
			re:   regexp.MustCompile(`(?i)\bopen\s+(?:a\s+)?new\s+tab(?:\s+(?:with|to|at)\s+(\S+))?`),
			build: func(_ string, groups []string) (Intent, bool) {
				return Intent{Kind: IntentOpenNewTab, URL: strings.TrimSpace(groups[1])}, true
			},
		},
		{
			name: "switch-tab",
			re:   regexp.MustCompile(`(?i)\b(?:switch|go)\s+(?:back\s+)?to\b.*\btab\b`),
			build: buildSwitchTab,
		},
	}}
}

// Classify maps a command to exactly one intent. It never fails: commands
// matching no rule yield the Unrecognized intent.
func (c *Classifier) Classify(command string) Classification {
	var (
		winner  *Intent
		winRule string
		matches []string
	)

	for _, r := range c.rules {
		groups := r.re.FindStringSubmatch(command)
		if groups == nil {
			continue
		}
		intent, ok := r.build(command, groups)
		if !ok {
			continue
		}
		matches = append(matches, r.name)
		if winner == nil {
			in := intent
			winner = &in
			winRule = r.name
		}
	}

	if winner == nil {
		return Classification{Intent: Intent{Kind: IntentUnrecognized}}
	}
	return Classification{Intent: *winner, Rule: winRule, Matches: matches}
}

func buildSendInvite(command string, _ []string) (Intent, bool) {
	// "send an invite to all applicants for the X role" has no specific
	// applicant; try that shape first.
	allRe := regexp.MustCompile(`(?i)\bsend\s+(?:an\s+)?(?:interview\s+)?invites?\s+(?:to\s+)?(?:all\s+)?applicants?\s+(?:for\s+)?(?:the\s+)?(?:job\s+)?(?:post\s+)?(?:for\s+)?(?:the\s+)?(.+)$`)
	if groups := allRe.FindStringSubmatch(command); groups != nil {
		title := trimTitleFiller(strings.TrimSpace(groups[1]))
		if title != "" {
			return Intent{Kind: IntentSendInvite, JobTitle: title}, true
		}
	}

	// "send an invite to John Doe for the X role" names one applicant.
	namedRe := regexp.MustCompile(`(?i)\bsend\s+(?:an\s+)?(?:interview\s+)?invites?\s+to\s+(.+?)\s+for\s+(?:the\s+)?(?:job\s+)?(?:post\s+)?(?:the\s+)?(.+)$`)
	if groups := namedRe.FindStringSubmatch(command); groups != nil {
		title := trimTitleFiller(strings.TrimSpace(groups[2]))
		if title != "" {
			return Intent{
				Kind:      IntentSendInvite,
				Applicant: strings.TrimSpace(groups[1]),
				JobTitle:  title,
			}, true
		}
	}

	return Intent{}, false
}

func buildSwitchTab(command string, _ []string) (Intent, bool) {
	if groups := reTabByNumber.FindStringSubmatch(command); groups != nil {
		n, err := strconv.Atoi(groups[1])
		if err != nil || n < 1 {
			// Spoken tab numbers start at 1; "tab 0" is not addressable.
			return Intent{}, false
		}
		// Users speak one-based tab numbers; the registry is zero-based.
		return Intent{Kind: IntentSwitchTab, TabIndex: n - 1}, true
	}
	if groups := reTabByTitle.FindStringSubmatch(command); groups != nil {
		fragment := strings.TrimSpace(groups[1])
		if fragment != "" {
			return Intent{Kind: IntentSwitchTab, TabIndex: -1, TabTitle: fragment}, true
		}
	}
	if groups := reTabByName.FindStringSubmatch(command); groups != nil {
		fragment := strings.TrimSpace(groups[1])
		if _, err := strconv.Atoi(fragment); err == nil {
			// A bare number here is a rejected tab number, not a title.
			return Intent{}, false
		}
		if fragment != "" {
			return Intent{Kind: IntentSwitchTab, TabIndex: -1, TabTitle: fragment}, true
		}
	}
	return Intent{}, false
}

// trimTitleFiller strips trailing filler words from a captured job title.
// Only whole words are stripped: "Outpost Manager post" loses "post" once.
func trimTitleFiller(title string) string {
	for {
		lower := strings.ToLower(title)
		stripped := false
		for _, suffix := range fillerSuffixes {
			if strings.HasSuffix(lower, " "+suffix) {
				title = strings.TrimSpace(title[:len(title)-len(suffix)-1])
				stripped = true
				break
			}
		}
		if !stripped {
			return title
		}
	}
}
