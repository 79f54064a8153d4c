package auth

// PermPendingApproval is a reserved sentinel, not a capability. An account
// holding it is quarantined: it cannot authenticate, and Authorize never lets
// the sentinel satisfy a requirement.
const PermPendingApproval = "PENDING_APPROVAL"

const (
	PermViewInventory   = "VIEW_INVENTORY"
	PermManageInventory = "MANAGE_INVENTORY"
	PermProcessSale     = "PROCESS_SALE"

	PermViewUserList      = "VIEW_USER_LIST"
	PermAssignPermission  = "ASSIGN_PERMISSION"
	PermApproveUserCreate = "APPROVE_USER_CREATION"
	PermApproveUserDelete = "APPROVE_USER_DELETION"
	PermCreateUserRequest = "CREATE_USER_REQUEST"
	PermDeleteUserRequest = "DELETE_USER_REQUEST"
	PermViewRequests      = "VIEW_REQUESTS"
)

// Permission describes one entry of the flat permission vocabulary.
type Permission struct {
	Key         string
	Description string
}

// BuiltinPermissions is the catalog of grantable permissions. The quarantine
// sentinel is deliberately absent: it is assigned by the lifecycle machinery,
// never by an operator.
var BuiltinPermissions = []Permission{
	{Key: PermViewInventory, Description: "View the product catalog"},
	{Key: PermManageInventory, Description: "Add products and adjust stock levels"},
	{Key: PermProcessSale, Description: "Process point-of-sale transactions"},
	{Key: PermViewUserList, Description: "List active accounts"},
	{Key: PermAssignPermission, Description: "Replace or grant account permissions"},
	{Key: PermApproveUserCreate, Description: "Approve registrations and user-creation requests"},
	{Key: PermApproveUserDelete, Description: "Approve user-deletion requests"},
	{Key: PermCreateUserRequest, Description: "Submit user-creation requests"},
	{Key: PermDeleteUserRequest, Description: "Submit user-deletion requests"},
	{Key: PermViewRequests, Description: "List privileged requests"},
}
