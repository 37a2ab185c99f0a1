package shape

import "regexp"

func init() {
	Register(&Descriptor{
		Kind:  Terminal,
		Title: "terminal auto-execute",
		// ASSIGN=CB(ARG=>{H?.setTerminalAutoExecutionPolicy?.(ARG),ARG===ENUM.EAGER&&CONFIRM(!0)},[...])
		Anchor: regexp.MustCompile(`(?P<assign>\w+)=(?P<callback>\w+)\((?P<arg>\w+)=>\{\w+\?\.setTerminalAutoExecutionPolicy\?\.\((?P<argSet>\w+)\),(?P<argCmp>\w+)===(?P<enum>\w+)\.EAGER&&(?P<confirm>\w+)\(!0\)\},\[[\w,]*\]\)`),
		SameAs: map[string]string{"argSet": "arg", "argCmp": "arg"},
		Context: []ContextPattern{
			{Role: "policy", Template: `(\w+)=\w+\?\.terminalAutoExecutionPolicy\?\?{{enum}}\.OFF`},
			{Role: "secure", Template: `(\w+)=\w+\?\.secureModeEnabled\?\?!1`},
		},
		Alias: effectAlias(RoleCallback),
		Signature: Signature{
			Marker: "_aep=",
			Verify: regexp.MustCompile(`_aep=\w+\(\(\)=>\{[^}]+EAGER`),
		},
		Hint: "setTerminalAutoExecutionPolicy",
		Uses: []string{RoleEffect, "policy", "enum", "secure", RoleConfirm},
		Insert: func(ids map[string]string) string {
			return "_aep=" + ids[RoleEffect] + "(()=>{" +
				ids["policy"] + "===" + ids["enum"] + ".EAGER&&!" + ids["secure"] + "&&" + ids[RoleConfirm] + "(!0)" +
				"},[]),"
		},
	})
}
