// Package scan wraps the v2 scan endpoints: task creation, status polling,
// quota and history queries.
package scan

// Status is the lifecycle state of a scan task. Transitions are monotonic:
// pending -> scanning -> completed|failed, and terminal states never change.
type Status string

const (
	StatusPending   Status = "pending"
	StatusScanning  Status = "scanning"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transition can occur.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Type selects the scan depth.
type Type string

const (
	TypeBasic Type = "basic"
	TypeDeep  Type = "deep"
)

// RiskCount aggregates findings by severity.
type RiskCount struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
	Info   int `json:"info"`
}

// Risk is a single finding.
type Risk struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Level       string  `json:"level"`
	Description string  `json:"description"`
	Solution    string  `json:"solution"`
	URL         string  `json:"url"`
	Category    string  `json:"category"`
	Confidence  float64 `json:"confidence,omitempty"`
}

// FraudRisk is the fraud-detection verdict attached to deep scans.
type FraudRisk struct {
	IsFraud    bool     `json:"isFraud"`
	FraudType  string   `json:"fraudType,omitempty"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons,omitempty"`
}

// Task is a backend-tracked unit of work representing one URL analysis.
// Result fields are only populated once the task is terminal.
type Task struct {
	TaskID    string     `json:"taskId"`
	Status    Status     `json:"status"`
	URL       string     `json:"url"`
	ScanType  Type       `json:"scanType,omitempty"`
	CreatedAt string     `json:"createdAt,omitempty"`
	StartTime string     `json:"startTime,omitempty"`
	EndTime   string     `json:"endTime,omitempty"`
	RiskLevel string     `json:"riskLevel,omitempty"`
	RiskScore float64    `json:"riskScore,omitempty"`
	RiskCount *RiskCount `json:"riskCount,omitempty"`
	Risks     []Risk     `json:"risks,omitempty"`
	FraudRisk *FraudRisk `json:"fraudRisk,omitempty"`
	Summary   string     `json:"summary,omitempty"`
}

// Quota is the remaining scan allowance, partitioned by tier. It is always
// server truth; the client never decrements it locally.
type Quota struct {
	FreeScansRemaining  int `json:"freeScansRemaining"`
	BasicScansRemaining int `json:"basicScansRemaining"`
	DeepScansRemaining  int `json:"deepScansRemaining"`
}

// UserStatus is the pre-scan capability check.
type UserStatus struct {
	Quota  Quota `json:"quota"`
	Status struct {
		IsFirstScan       bool `json:"isFirstScan"`
		IsPaidUser        bool `json:"isPaidUser"`
		HasValidDeepQuota bool `json:"hasValidDeepQuota"`
		CanBasicScan      bool `json:"canBasicScan"`
		CanDeepScan       bool `json:"canDeepScan"`
	} `json:"status"`
	Stats struct {
		TotalBasicScans int    `json:"totalBasicScans"`
		TotalDeepScans  int    `json:"totalDeepScans"`
		RegisteredAt    string `json:"registeredAt"`
	} `json:"stats"`
}

// Pagination is the limit/offset cursor shared by list endpoints.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// HistoryPage is one page of the server-side scan history.
type HistoryPage struct {
	Records    []Task     `json:"records"`
	Pagination Pagination `json:"pagination"`
}

// URLStats is the public per-URL scan statistics.
type URLStats struct {
	TotalScans    int    `json:"totalScans"`
	LastRiskLevel string `json:"lastRiskLevel,omitempty"`
	LastFraudRisk *bool  `json:"lastFraudRisk,omitempty"`
	FirstScanAt   string `json:"firstScanAt,omitempty"`
	LastScanAt    string `json:"lastScanAt,omitempty"`
}
