package rbac

// Permission slugs used across the API surface. Seeded at startup; the slug
// is the permanent identity of a capability.
const (
	PermVisitorsRead   = "visitors:read"
	PermVisitorsCreate = "visitors:create"
	PermVisitorsUpdate = "visitors:update"
	PermVisitorsDelete = "visitors:delete"

	PermVisitsRead   = "visits:read"
	PermVisitsCreate = "visits:create"
	PermVisitsUpdate = "visits:update"

	PermAppointmentsRead   = "appointments:read"
	PermAppointmentsCreate = "appointments:create"
	PermAppointmentsUpdate = "appointments:update"

	PermOrganizationsRead   = "organizations:read"
	PermOrganizationsUpdate = "organizations:update"

	PermEmployeesRead   = "employees:read"
	PermEmployeesManage = "employees:manage"

	PermIncidentsRead   = "incidents:read"
	PermIncidentsManage = "incidents:manage"

	PermWatchlistRead   = "watchlist:read"
	PermWatchlistManage = "watchlist:manage"

	PermDocumentsRead   = "documents:read"
	PermDocumentsManage = "documents:manage"

	PermUsersRead   = "users:read"
	PermUsersManage = "users:manage"
	PermUsersDelete = "users:delete"

	PermRolesRead   = "roles:read"
	PermRolesManage = "roles:manage"

	PermPermissionsRead   = "permissions:read"
	PermPermissionsManage = "permissions:manage"

	PermAuditRead = "audit:read"
)

// BuiltinPermission is a seed catalog entry.
type BuiltinPermission struct {
	Slug        string
	Description string
}

var BuiltinPermissions = []BuiltinPermission{
	{PermVisitorsRead, "List and view visitors"},
	{PermVisitorsCreate, "Register visitors"},
	{PermVisitorsUpdate, "Update visitor records"},
	{PermVisitorsDelete, "Delete visitor records"},
	{PermVisitsRead, "List and view visits"},
	{PermVisitsCreate, "Create visits"},
	{PermVisitsUpdate, "Check visits in and out"},
	{PermAppointmentsRead, "List and view appointments"},
	{PermAppointmentsCreate, "Schedule appointments"},
	{PermAppointmentsUpdate, "Update appointments"},
	{PermOrganizationsRead, "View organization settings"},
	{PermOrganizationsUpdate, "Update organization settings"},
	{PermEmployeesRead, "List employees"},
	{PermEmployeesManage, "Manage employee records"},
	{PermIncidentsRead, "List incidents"},
	{PermIncidentsManage, "Report and resolve incidents"},
	{PermWatchlistRead, "View the watchlist"},
	{PermWatchlistManage, "Manage watchlist entries"},
	{PermDocumentsRead, "View visitor documents"},
	{PermDocumentsManage, "Manage visitor documents"},
	{PermUsersRead, "List system accounts"},
	{PermUsersManage, "Manage system accounts"},
	{PermUsersDelete, "Delete system accounts"},
	{PermRolesRead, "List roles"},
	{PermRolesManage, "Manage roles and assignments"},
	{PermPermissionsRead, "List permissions"},
	{PermPermissionsManage, "Manage the permission catalog"},
	{PermAuditRead, "Read audit logs"},
}
