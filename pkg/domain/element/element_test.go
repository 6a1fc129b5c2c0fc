package element

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/goax/pkg/domain/types"
	axerrors "github.com/dshills/goax/pkg/errors"
)

func strPtr(s string) *string { return &s }

func idPtr(i int) *types.ElementID {
	id := types.ElementID(i)
	return &id
}

// dialogSnapshot is the OK/Cancel/field scenario used throughout the package tests.
func dialogSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	snap, err := NewSnapshot(CaptureInfo{FocusedApp: "Dialog", ScreenWidth: 1440, ScreenHeight: 900, MaxDepth: 10}, []Element{
		{Role: RoleButton, Label: "OK", Enabled: true, BBox: BoundingBox{X: 100, Y: 200, Width: 80, Height: 30}},
		{Role: RoleButton, Label: "Cancel", Enabled: true, BBox: BoundingBox{X: 200, Y: 200, Width: 80, Height: 30}},
		{Role: RoleTextField, Label: "", Enabled: true, BBox: BoundingBox{X: 100, Y: 100, Width: 300, Height: 24}},
	})
	require.NoError(t, err)
	return snap
}

func TestBoundingBox(t *testing.T) {
	tests := []struct {
		name   string
		box    BoundingBox
		wantX  int
		wantY  int
		inside [2]int
		out    [2]int
	}{
		{"even extents", NewBoundingBox(100, 200, 80, 30), 140, 215, [2]int{180, 230}, [2]int{181, 230}},
		{"odd extents round down", NewBoundingBox(0, 0, 5, 3), 2, 1, [2]int{0, 0}, [2]int{-1, 0}},
		{"negative extents clamp", NewBoundingBox(10, 10, -4, -9), 10, 10, [2]int{10, 10}, [2]int{11, 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := tt.box.Center()
			assert.Equal(t, tt.wantX, x)
			assert.Equal(t, tt.wantY, y)
			assert.True(t, tt.box.Contains(tt.inside[0], tt.inside[1]))
			assert.False(t, tt.box.Contains(tt.out[0], tt.out[1]))
			assert.GreaterOrEqual(t, tt.box.Width, 0)
			assert.GreaterOrEqual(t, tt.box.Height, 0)
		})
	}
}

func TestNewSnapshot_AssignsContiguousIDs(t *testing.T) {
	snap, err := NewSnapshot(CaptureInfo{}, []Element{
		{ID: 42, Role: RoleWindow, Label: "Main"},
		{ID: 7, Role: RoleButton, Label: "OK", ParentID: idPtr(0), Depth: 1},
		{ID: 7, Role: RoleButton, Label: "OK", ParentID: idPtr(0), Depth: 1},
	})
	require.NoError(t, err)

	for i, e := range snap.Elements {
		assert.Equal(t, types.ElementID(i), e.ID)
	}
	assert.False(t, snap.Timestamp.IsZero())
	assert.NotZero(t, snap.Generation)
}

func TestNewSnapshot_GenerationsIncrease(t *testing.T) {
	a, err := NewSnapshot(CaptureInfo{}, nil)
	require.NoError(t, err)
	b, err := NewSnapshot(CaptureInfo{}, nil)
	require.NoError(t, err)
	assert.Greater(t, b.Generation, a.Generation)
}

func TestNewSnapshot_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		info  CaptureInfo
		elems []Element
	}{
		{"parent after child", CaptureInfo{}, []Element{{Role: RoleGroup, ParentID: idPtr(1)}, {Role: RoleGroup}}},
		{"self parent", CaptureInfo{}, []Element{{Role: RoleGroup, ParentID: idPtr(0)}}},
		{"depth beyond bound", CaptureInfo{MaxDepth: 2}, []Element{{Role: RoleGroup, Depth: 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSnapshot(tt.info, tt.elems)
			assert.Error(t, err)
		})
	}
}

func TestNewSnapshot_DoesNotAliasInput(t *testing.T) {
	in := []Element{{Role: RoleButton, Label: "OK", Actions: []string{"press"}}}
	snap, err := NewSnapshot(CaptureInfo{}, in)
	require.NoError(t, err)

	in[0].Actions[0] = "mutated"
	in[0].Label = "mutated"
	assert.Equal(t, "press", snap.Elements[0].Actions[0])
	assert.Equal(t, "OK", snap.Elements[0].Label)
}

func TestSnapshot_Filter(t *testing.T) {
	snap := dialogSnapshot(t)

	tests := []struct {
		name    string
		filter  Filter
		wantIDs []types.ElementID
	}{
		{"zero filter keeps all", Filter{}, []types.ElementID{0, 1, 2}},
		{"role only", Filter{Role: RoleButton}, []types.ElementID{0, 1}},
		{"label substring case-insensitive", Filter{Label: "canc"}, []types.ElementID{1}},
		{"role and label", Filter{Role: RoleButton, Label: "ok"}, []types.ElementID{0}},
		{"no match", Filter{Role: RoleLink}, []types.ElementID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := snap.Filter(tt.filter)
			ids := make([]types.ElementID, 0, len(got))
			for _, e := range got {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
	assert.Equal(t, 3, snap.Len(), "filtering must not modify the snapshot")
}

func TestSnapshot_ElementBounds(t *testing.T) {
	snap := dialogSnapshot(t)

	_, ok := snap.Element(-1)
	assert.False(t, ok)
	_, ok = snap.Element(3)
	assert.False(t, ok)
	e, ok := snap.Element(1)
	require.True(t, ok)
	assert.Equal(t, "Cancel", e.Label)

	var nilSnap *Snapshot
	assert.Equal(t, 0, nilSnap.Len())
}

func TestSnapshot_JSONFieldNames(t *testing.T) {
	snap := dialogSnapshot(t)
	snap.Elements[2].Value = strPtr("hello")

	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"elements", "focused_app", "timestamp", "screen_width", "screen_height", "skipped_count"} {
		assert.Contains(t, raw, key)
	}
	elems := raw["elements"].([]interface{})
	first := elems[0].(map[string]interface{})
	assert.Contains(t, first, "bbox")
	assert.NotContains(t, first, "handle")
}

func TestRole_Parse(t *testing.T) {
	r, err := ParseRole(" Button ")
	require.NoError(t, err)
	assert.Equal(t, RoleButton, r)

	_, err = ParseRole("widget")
	assert.Error(t, err)

	assert.Len(t, Roles(), 22)
	assert.True(t, RoleColorPicker.IsValid())
	assert.False(t, Role("AXButton").IsValid())
	assert.True(t, RoleCheckbox.IsInteractive())
	assert.False(t, RoleText.IsInteractive())
}

func TestState_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b State
		want bool
	}{
		{"identical", State{Enabled: true}, State{Enabled: true}, true},
		{"enabled differs", State{Enabled: true}, State{}, false},
		{"nil vs empty value", State{}, State{Value: strPtr("")}, false},
		{"same value", State{Value: strPtr("x")}, State{Value: strPtr("x")}, true},
		{"different value", State{Value: strPtr("x")}, State{Value: strPtr("y")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}

func TestSelector(t *testing.T) {
	snap := dialogSnapshot(t)

	byID := ByID(1)
	require.NoError(t, byID.Validate())
	assert.True(t, byID.IsExact())
	assert.True(t, byID.Matches(snap.Elements[1]))
	assert.False(t, byID.Matches(snap.Elements[0]))

	pred := ByRoleLabel(RoleButton, "OK")
	require.NoError(t, pred.Validate())
	assert.True(t, pred.Matches(snap.Elements[0]))
	assert.False(t, pred.Matches(snap.Elements[2]))

	withWhere := Selector{Role: RoleButton, Where: func(e Element) bool { return e.BBox.X > 150 }, Expr: "x > 150"}
	assert.False(t, withWhere.Matches(snap.Elements[0]))
	assert.True(t, withWhere.Matches(snap.Elements[1]))
	assert.Equal(t, `role=button where "x > 150"`, withWhere.String())

	assert.Error(t, Selector{}.Validate())
	assert.Error(t, Selector{Role: "widget"}.Validate())
	assert.Error(t, ByID(-1).Validate())
}

func TestAction_Validate(t *testing.T) {
	ok := ByRoleLabel(RoleButton, "OK")

	tests := []struct {
		name    string
		action  Action
		wantErr bool
	}{
		{"click with target", Action{Kind: ActionClick, Target: &ok}, false},
		{"click without target", Action{Kind: ActionClick}, true},
		{"type into focus", Action{Kind: ActionTypeText, Text: "hi"}, false},
		{"type without text", Action{Kind: ActionTypeText}, true},
		{"set-value clears", Action{Kind: ActionSetValue, Target: &ok}, false},
		{"alias kind rejected", Action{Kind: "press", Target: &ok}, true},
		{"unknown kind", Action{Kind: "hover", Target: &ok}, true},
		{"invalid target", Action{Kind: ActionFocus, Target: &Selector{}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.action.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseActionKind_Aliases(t *testing.T) {
	for alias, want := range map[string]ActionKind{
		"press": ActionClick, "double": ActionDoubleClick, "right": ActionRightClick,
		"set": ActionSetValue, "type": ActionTypeText, "FOCUS": ActionFocus,
	} {
		got, err := ParseActionKind(alias)
		require.NoError(t, err, alias)
		assert.Equal(t, want, got, alias)
	}
	assert.True(t, ActionDoubleClick.IsPointer())
	assert.False(t, ActionFocus.IsPointer())
	assert.True(t, ActionTypeText.NeedsPayload())
}

func TestKeys_Ordinals(t *testing.T) {
	snap, err := NewSnapshot(CaptureInfo{}, []Element{
		{Role: RoleButton, Label: "OK"},
		{Role: RoleButton, Label: "OK"},
		{Role: RoleText, Label: "OK"},
	})
	require.NoError(t, err)

	keys := Keys(snap)
	require.Len(t, keys, 3)
	assert.Equal(t, Key{Role: RoleButton, Label: "OK", Ordinal: 0}, keys[0])
	assert.Equal(t, Key{Role: RoleButton, Label: "OK", Ordinal: 1}, keys[1])
	assert.Equal(t, Key{Role: RoleText, Label: "OK", Ordinal: 0}, keys[2])
	assert.Equal(t, `button "OK"#1`, keys[1].String())
	assert.Nil(t, Keys(nil))
}

func TestTrainingSample(t *testing.T) {
	snap := dialogSnapshot(t)

	s, err := NewTrainingSample(snap, "  click the OK button ", 0, ActionClick)
	require.NoError(t, err)
	assert.Equal(t, "click the OK button", s.Command)
	target, err := s.Target()
	require.NoError(t, err)
	assert.Equal(t, "OK", target.Label)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.EqualValues(t, 0, raw["target_element_id"])
	assert.Equal(t, "click the OK button", raw["command"])
	assert.Contains(t, raw, "screen_state")
	assert.Contains(t, raw, "created_at")

	_, err = NewTrainingSample(snap, "click", 3, ActionClick)
	assert.True(t, axerrors.Is(err, axerrors.NotFound))

	_, err = NewTrainingSample(snap, "   ", 0, ActionClick)
	assert.True(t, axerrors.Is(err, axerrors.Invalid))

	_, err = NewTrainingSample(nil, "click", 0, ActionClick)
	assert.Error(t, err)
}
