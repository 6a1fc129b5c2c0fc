package fixture

// DemoYAML is the built-in fixture: a dialog with two buttons and an unlabeled
// text field. The window and group carry no label and are not interactive, so
// a default capture yields exactly [OK, Cancel, field].
const DemoYAML = `
app: Dialog
screen: {width: 1440, height: 900}
root:
  role: AXWindow
  bbox: {x: 0, y: 0, width: 600, height: 400}
  children:
    - role: AXGroup
      bbox: {x: 80, y: 180, width: 240, height: 70}
      children:
        - role: AXButton
          label: OK
          bbox: {x: 100, y: 200, width: 80, height: 30}
          actions: [AXPress]
        - role: AXButton
          label: Cancel
          bbox: {x: 200, y: 200, width: 80, height: 30}
          actions: [AXPress]
    - role: AXTextField
      bbox: {x: 100, y: 100, width: 300, height: 24}
      value: ""
      actions: [AXConfirm]
`

// Demo returns a fresh copy of the built-in fixture tree.
func Demo() *Tree {
	t, err := Parse([]byte(DemoYAML))
	if err != nil {
		panic("fixture: invalid demo tree: " + err.Error())
	}
	return t
}
