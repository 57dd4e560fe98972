package enums

// Role identifies the audience a user or notification belongs to.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleAdmin
}
