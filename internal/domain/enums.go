package domain

// RAG is the red/amber/green health indicator of a project.
type RAG string

const (
	RAGGreen RAG = "green"
	RAGAmber RAG = "amber"
	RAGRed   RAG = "red"
)

type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "active"
	ProjectOnHold   ProjectStatus = "on_hold"
	ProjectClosed   ProjectStatus = "closed"
	ProjectArchived ProjectStatus = "archived"
)

// ValidProjectStatuses is the canonical set of accepted project statuses.
var ValidProjectStatuses = map[ProjectStatus]bool{
	ProjectActive: true, ProjectOnHold: true, ProjectClosed: true, ProjectArchived: true,
}

type StageStatus string

const (
	StageNotStarted StageStatus = "not_started"
	StageInProgress StageStatus = "in_progress"
	StageCompleted  StageStatus = "completed"
	StageSkipped    StageStatus = "skipped"
	StageBlocked    StageStatus = "blocked"
)

// ValidStageStatuses is the canonical set of accepted stage statuses.
var ValidStageStatuses = map[StageStatus]bool{
	StageNotStarted: true, StageInProgress: true, StageCompleted: true,
	StageSkipped: true, StageBlocked: true,
}

type PlanStatus string

const (
	PlanDraft           PlanStatus = "draft"
	PlanPendingApproval PlanStatus = "pending_approval"
	PlanApproved        PlanStatus = "approved"
	PlanRejected        PlanStatus = "rejected"
	PlanSuperseded      PlanStatus = "superseded"
)

type Role string

const (
	RoleAdmin          Role = "admin"
	RoleHoD            Role = "hod"
	RoleProjectOfficer Role = "project_officer"
	RoleViewer         Role = "viewer"
)

// ValidRoles is the canonical set of accepted user roles.
var ValidRoles = map[Role]bool{
	RoleAdmin: true, RoleHoD: true, RoleProjectOfficer: true, RoleViewer: true,
}

type IPRKind string

const (
	IPRPatent    IPRKind = "patent"
	IPRDesign    IPRKind = "design"
	IPRCopyright IPRKind = "copyright"
	IPRTrademark IPRKind = "trademark"
)

// ValidIPRKinds is the canonical set of accepted IPR kinds.
var ValidIPRKinds = map[IPRKind]bool{
	IPRPatent: true, IPRDesign: true, IPRCopyright: true, IPRTrademark: true,
}

type IPRStatus string

const (
	IPRDrafted   IPRStatus = "drafted"
	IPRFiled     IPRStatus = "filed"
	IPRPublished IPRStatus = "published"
	IPRGranted   IPRStatus = "granted"
	IPRRejected  IPRStatus = "rejected"
	IPRAbandoned IPRStatus = "abandoned"
)

// ValidIPRStatuses is the canonical set of accepted IPR statuses.
var ValidIPRStatuses = map[IPRStatus]bool{
	IPRDrafted: true, IPRFiled: true, IPRPublished: true,
	IPRGranted: true, IPRRejected: true, IPRAbandoned: true,
}

type NotificationKind string

const (
	NotifyStageChanged  NotificationKind = "stage_changed"
	NotifyPlanSubmitted NotificationKind = "plan_submitted"
	NotifyPlanDecided   NotificationKind = "plan_decided"
	NotifyMention       NotificationKind = "mention"
	NotifyDueSoon       NotificationKind = "due_soon"
)
