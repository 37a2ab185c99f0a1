package shape

import "regexp"

func init() {
	Register(&Descriptor{
		Kind:  FilePerm,
		Title: "file permission auto-allow",
		// ALLOW=CB(()=>{SEND(!0,SCOPE.ONCE)},[...])
		Anchor: regexp.MustCompile(`(?P<allow>\w+)=(?P<callback>\w+)\(\(\)=>\{(?P<send>\w+)\(!0,(?P<scope>\w+)\.ONCE\)\},\[[\w,]*\]\)`),
		Context: []ContextPattern{
			// SEND=CB((A,B)=>{H?.sendFilePermissionResponse?.(...
			{Role: "handler", Template: `\b{{send}}=\w+\(\(\w+,\w+\)=>\{(\w+)\?\.sendFilePermissionResponse\?\.\(`},
		},
		Alias: effectAlias(RoleCallback),
		Signature: Signature{
			Marker: "_afp=",
			Verify: regexp.MustCompile(`_afp=\w+\(\(\)=>\{\w+\(!0,\w+\.CONVERSATION\)\},\[\w+\]\)`),
		},
		Hint: "sendFilePermissionResponse",
		Uses: []string{RoleEffect, "send", "scope"},
		Insert: func(ids map[string]string) string {
			s := ids["send"]
			return "_afp=" + ids[RoleEffect] + "(()=>{" + s + "(!0," + ids["scope"] + ".CONVERSATION)},[" + s + "]),"
		},
	})
}
