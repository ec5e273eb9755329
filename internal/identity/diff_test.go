package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChanges(t *testing.T) {
	testCases := []struct {
		name             string
		oldItems         []string
		newItems         []string
		expectedDeleted  []string
		expectedInserted []string
	}{
		{
			name:             "disjoint sets",
			oldItems:         []string{"a", "b"},
			newItems:         []string{"c", "d"},
			expectedDeleted:  []string{"a", "b"},
			expectedInserted: []string{"c", "d"},
		},
		{
			name:             "overlap keeps common rows untouched",
			oldItems:         []string{"a", "b", "c"},
			newItems:         []string{"a", "c", "d"},
			expectedDeleted:  []string{"b"},
			expectedInserted: []string{"d"},
		},
		{
			name:     "identical sets",
			oldItems: []string{"a", "b"},
			newItems: []string{"a", "b"},
		},
		{
			name:             "empty old inserts everything",
			newItems:         []string{"a"},
			expectedInserted: []string{"a"},
		},
		{
			name:            "empty new deletes everything",
			oldItems:        []string{"a"},
			expectedDeleted: []string{"a"},
		},
		{
			name: "both empty",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := Changes(tc.oldItems, tc.newItems, func(s string) string { return s })

			assert.Equal(t, tc.expectedDeleted, out.Deleted)
			assert.Equal(t, tc.expectedInserted, out.Inserted)
		})
	}
}

func TestChangesStructKey(t *testing.T) {
	oldPerms := []Permission{
		{ServiceID: "core", Key: "ADMIN", Action: "ACCESS", Instance: "*"},
		{ServiceID: "mail", Key: "INBOX", Action: "READ", Instance: "*"},
	}
	newPerms := []Permission{
		{ServiceID: "core", Key: "ADMIN", Action: "ACCESS", Instance: "*"},
		{ServiceID: "mail", Key: "INBOX", Action: "UPDATE", Instance: "*"},
	}

	out := Changes(oldPerms, newPerms, keyOfPermission)

	assert.Equal(t, []Permission{{ServiceID: "mail", Key: "INBOX", Action: "READ", Instance: "*"}}, out.Deleted)
	assert.Equal(t, []Permission{{ServiceID: "mail", Key: "INBOX", Action: "UPDATE", Instance: "*"}}, out.Inserted)
}
