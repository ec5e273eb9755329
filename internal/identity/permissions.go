package identity

import "github.com/tenantcore/tenantcore/internal/db/models"

// SplitPermissions partitions raw permission rows into plain grants and
// service grants. Wildcard-instance rows are plain grants. Core SERVICE/ACCESS
// rows with a concrete instance name the service granted; the instance is the
// service ID. Rows matching neither shape are dropped.
func SplitPermissions(rows []models.RolePermission) ([]Permission, []string) {
	var others []Permission
	var services []string

	for _, row := range rows {
		switch {
		case row.IsWildcard():
			others = append(others, Permission{
				ServiceID: row.ServiceID,
				Key:       row.Key,
				Action:    row.Action,
				Instance:  row.Instance,
			})
		case row.IsServiceAccess():
			services = append(services, row.Instance)
		}
	}

	return others, services
}

// permissionKey is the identity of a permission row for diffing.
type permissionKey struct {
	ServiceID string
	Key       string
	Action    string
	Instance  string
}

func keyOfPermission(p Permission) permissionKey {
	return permissionKey{
		ServiceID: p.ServiceID,
		Key:       p.Key,
		Action:    p.Action,
		Instance:  p.Instance,
	}
}

// servicePermission renders a granted service ID as a core SERVICE/ACCESS row.
func servicePermission(serviceID string) Permission {
	return Permission{
		ServiceID: models.CoreServiceID,
		Key:       models.PermissionKeyService,
		Action:    models.PermissionActionAccess,
		Instance:  serviceID,
	}
}
