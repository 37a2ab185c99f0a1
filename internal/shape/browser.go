package shape

import "regexp"

func init() {
	Register(&Descriptor{
		Kind:  Browser,
		Title: "browser action auto-confirm",
		// PROPS=MEMO(()=>({onConfirm:CONFIRM,onDeny:DENY,actionType:ENUM.BROWSER_ACTION}),[...])
		Anchor: regexp.MustCompile(`(?P<props>\w+)=(?P<memo>\w+)\(\(\)=>\(\{onConfirm:(?P<confirm>\w+),onDeny:(?P<deny>\w+),actionType:(?P<actionEnum>\w+)\.BROWSER_ACTION\}\),\[[\w,]*\]\)`),
		Context: []ContextPattern{
			// CONFIRM=CB(()=>{H?.confirmBrowserAction?.(...
			{Role: RoleCallback, Template: `\b{{confirm}}=(\w+)\(\(\)=>\{\w+\?\.confirmBrowserAction\?\.\(`},
		},
		Alias: effectAlias(RoleCallback, "memo"),
		Signature: Signature{
			Marker: "_abc=",
			Verify: regexp.MustCompile(`_abc=\w+\(\(\)=>\{\w+\(\)\},\[\w+\]\)`),
		},
		Hint: "confirmBrowserAction",
		Uses: []string{RoleEffect, RoleConfirm},
		Insert: func(ids map[string]string) string {
			c := ids[RoleConfirm]
			return "_abc=" + ids[RoleEffect] + "(()=>{" + c + "()},[" + c + "]),"
		},
	})
}
