package instancesync

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanfei1991/instancesync/model"
)

func TestIdentityOf(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		params map[string]string
		keys   []string
		id     string
		ok     bool
	}{
		{map[string]string{AsgNameKey: "asg-1"}, []string{AsgNameKey}, "asg-1", true},
		{map[string]string{AsgNameKey: ""}, []string{AsgNameKey}, "", true},
		{map[string]string{}, []string{AsgNameKey}, "", false},
		{
			map[string]string{FunctionNameKey: "fn", QualifierKey: "3"},
			[]string{FunctionNameKey, QualifierKey}, "fn\x003", true,
		},
		{map[string]string{FunctionNameKey: "fn"}, []string{FunctionNameKey, QualifierKey}, "", false},
	}
	for i, tc := range testCases {
		id, ok := identityOf(tc.params, tc.keys)
		require.Equal(t, tc.ok, ok, "case %d", i)
		require.Equal(t, tc.id, id, "case %d", i)
	}
	require.Equal(t, "fn|3", displayIdentity("fn\x003"))
}

func TestDistinctKeepsFirstSeen(t *testing.T) {
	t.Parallel()

	keys := []string{AsgNameKey}
	candidates := []map[string]string{
		{AsgNameKey: "asg-2", "n": "1"},
		{AsgNameKey: "asg-1", "n": "2"},
		{AsgNameKey: "asg-2", "n": "3"},
		{"other": "x"},
		{AsgNameKey: "ASG-1", "n": "4"},
		{AsgNameKey: " asg-1", "n": "5"},
	}
	got := distinct(candidates, keys)
	require.Len(t, got, 4)
	require.Equal(t, "1", got[0]["n"])
	require.Equal(t, "2", got[1]["n"])
	// case and whitespace are significant
	require.Equal(t, "4", got[2]["n"])
	require.Equal(t, "5", got[3]["n"])

	require.Empty(t, distinct(nil, keys))
}

func TestMissing(t *testing.T) {
	t.Parallel()

	keys := []string{FunctionNameKey, QualifierKey}
	records := []*model.PerpetualTaskRecord{
		record("t-1", model.PerpetualTaskAwsLambdaInstanceSync, map[string]string{FunctionNameKey: "fn", QualifierKey: "1"}),
		nil,
		record("t-2", model.PerpetualTaskAwsLambdaInstanceSync, map[string]string{FunctionNameKey: "fn"}),
	}
	candidates := []map[string]string{
		{FunctionNameKey: "fn", QualifierKey: "1"},
		{FunctionNameKey: "fn", QualifierKey: "2"},
		{FunctionNameKey: "fn", QualifierKey: "2"},
		{FunctionNameKey: "other", QualifierKey: "1"},
	}

	testCases := []struct {
		name     string
		records  []*model.PerpetualTaskRecord
		expected []string
	}{
		{"no records", nil, []string{"1", "2", "1"}},
		{"empty records", []*model.PerpetualTaskRecord{}, []string{"1", "2", "1"}},
		{"existing", records, []string{"2", "1"}},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := missing(candidates, tc.records, keys)
			qualifiers := make([]string, 0, len(got))
			for _, p := range got {
				qualifiers = append(qualifiers, p[QualifierKey])
			}
			require.Equal(t, tc.expected, qualifiers)
		})
	}

	idx := represented(records, keys)
	require.Len(t, idx, 1)
	require.Equal(t, "t-1", idx["fn\x001"].UUID)
}
