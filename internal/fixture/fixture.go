// Package fixture holds small minified bundles shaped like the application's
// real ones, and a helper that lays them out as a fake installation.
package fixture

import (
	"os"
	"path/filepath"
	"testing"
)

// Workbench carries all three fragment kinds.
const Workbench = `"use strict";var Tn={OFF:"off",AUTO:"auto",EAGER:"eager"},Sc={ONCE:"once",CONVERSATION:"conversation"},Ba={TERMINAL:"terminal",BROWSER_ACTION:"browser_action"};
function Qm(e){const t=e.handler,n=t?.terminalAutoExecutionPolicy??Tn.OFF,r=t?.secureModeEnabled??!1,[o,i]=Xe(!1);return Fe(()=>{o&&t?.onExecute?.()},[o]),Fe(()=>{const s=setInterval(()=>i(!1),500);return ()=>clearInterval(s)},[]),Fe(()=>{n&&t?.log?.(n)},[n]);const l=pe(c=>{t?.setTerminalAutoExecutionPolicy?.(c),c===Tn.EAGER&&i(!0)},[t,i]);return Ke("div",{onChange:l})}
function Jb(e){const t=e.handler,a=pe(()=>{t?.confirmBrowserAction?.(e.step)},[t,e.step]),d=pe(()=>{t?.denyBrowserAction?.(e.step)},[t,e.step]),u=Ot(()=>({onConfirm:a,onDeny:d,actionType:Ba.BROWSER_ACTION}),[a,d]);return Ke(Pr,u)}
function Wv(e){const t=e.handler,s=pe((f,g)=>{t?.sendFilePermissionResponse?.(f,g)},[t]),m=pe(()=>{s(!0,Sc.ONCE)},[s]);return Fe(()=>{t?.track?.("perm")},[t]),Ke(Fp,{onAllow:m})}
`

// JetskiAgent carries only the terminal kind, under different minified names.
const JetskiAgent = `var Lk={OFF:0,AUTO:1,EAGER:2};function Zq(A){let B=A.srv,C=B?.terminalAutoExecutionPolicy??Lk.OFF,D=B?.secureModeEnabled??!1,[E,F]=st(!1);qe(()=>{if(!E)return;let G=()=>F(!1);return ()=>G()},[E]);qe(()=>{C&&B?.ping?.(C)},[C]);let H=Bt(I=>{B?.setTerminalAutoExecutionPolicy?.(I),I===Lk.EAGER&&F(!0)},[B,F]);return H}
`

// Unrelated has none of the shapes.
const Unrelated = `var a=1;function b(c){return c+a}
`

const (
	WorkbenchRel   = "resources/app/out/vs/workbench/workbench.desktop.main.js"
	JetskiAgentRel = "resources/app/out/jetskiAgent/main.js"
)

// Install writes a fake installation under a temp dir and returns its base
// directory. Bundles maps a relative path to its content; nil means the default
// workbench and jetskiAgent bundles.
func Install(tb testing.TB, bundles map[string]string) string {
	tb.Helper()
	base := tb.TempDir()
	if bundles == nil {
		bundles = map[string]string{WorkbenchRel: Workbench, JetskiAgentRel: JetskiAgent}
	}
	for rel, content := range bundles {
		WriteFile(tb, filepath.Join(base, filepath.FromSlash(rel)), content)
	}
	WriteFile(tb, filepath.Join(base, "resources", "app", "package.json"), `{"name":"antigravity","version":"1.11.3"}`)
	WriteFile(tb, filepath.Join(base, "resources", "app", "product.json"), `{"nameShort":"Antigravity","ideVersion":"1.104.0"}`)
	return base
}

// WriteFile creates parent directories and writes content.
func WriteFile(tb testing.TB, path, content string) {
	tb.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		tb.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		tb.Fatal(err)
	}
}

// ReadFile returns the file content or fails the test.
func ReadFile(tb testing.TB, path string) string {
	tb.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		tb.Fatal(err)
	}
	return string(data)
}
