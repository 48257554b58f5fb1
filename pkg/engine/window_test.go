package engine

import (
	"fmt"
	"strings"
	"testing"
)

func optsWithMode(mode WindowMode) *ScoringOptions {
	o := DefaultScoringOptions()
	o.WindowMode = mode
	return &o
}

func TestRollingWindowTrimsOldTurns(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&sb, "안녕하세요 %d번째 메시지입니다\n", i)
	}
	turns := ParseThread(sb.String())

	info := SelectWindow(turns, CallContext{}, optsWithMode(WindowRolling))

	if info.Mode != "rolling" {
		t.Errorf("Mode = %s, want rolling", info.Mode)
	}
	if info.Start != 10 || info.End != 29 {
		t.Errorf("window = [%d,%d], want [10,29]", info.Start, info.End)
	}
	if turns[9].InScope {
		t.Error("turn 9 marked in scope outside the window")
	}
	if !turns[10].InScope || !turns[29].InScope {
		t.Error("window members not marked in scope")
	}
}

func TestStickyWindowCap(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&sb, "메시지 %d\n", i)
	}
	turns := ParseThread(sb.String())

	opts := optsWithMode(WindowSticky)
	opts.StickyCap = 8
	info := SelectWindow(turns, CallContext{}, opts)

	if info.Start != 4 || info.End != 11 {
		t.Errorf("window = [%d,%d], want [4,11]", info.Start, info.End)
	}
}

func TestAutoWindowAnchorsOnStrongDemand(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&sb, "S: 일반 대화 %d\n", i)
	}
	sb.WriteString("S: 안전계좌로 옮기셔야 합니다\n")
	for i := 0; i < 4; i++ {
		fmt.Fprintf(&sb, "S: 추가 안내 %d\n", i)
	}
	turns := ParseThread(sb.String())

	info := SelectWindow(turns, CallContext{}, optsWithMode(WindowAuto))

	if info.Anchors != 10 {
		t.Fatalf("Anchors = %d, want 10", info.Anchors)
	}
	// Backtrack 4 from the anchor.
	if info.Start != 6 || info.End != 14 {
		t.Errorf("window = [%d,%d], want [6,14]", info.Start, info.End)
	}
	if info.Reason != "strong-demand anchor" {
		t.Errorf("Reason = %q", info.Reason)
	}
}

func TestAutoWindowIgnoresReceiverDemandEcho(t *testing.T) {
	// The victim quoting the demand back must not anchor the window.
	text := `R: 인증번호를 알려달라고 하는데 이상해요
안녕하세요
잘 지내시죠`
	turns := ParseThread(text)

	info := SelectWindow(turns, CallContext{}, optsWithMode(WindowAuto))

	if info.Anchors != -1 {
		t.Errorf("Anchors = %d, want -1 (receiver turns never anchor)", info.Anchors)
	}
}

func TestAutoWindowActiveCallAnchorsAtStart(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 6; i++ {
		fmt.Fprintf(&sb, "통화 내용 %d\n", i)
	}
	turns := ParseThread(sb.String())

	info := SelectWindow(turns, CallContext{ActiveCall: true}, optsWithMode(WindowAuto))

	if info.Anchors != 0 || info.Start != 0 {
		t.Errorf("anchor=%d start=%d, want 0/0 for an active call", info.Anchors, info.Start)
	}
}

func TestAutoWindowFallsBackToRolling(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&sb, "일상 대화 %d\n", i)
	}
	turns := ParseThread(sb.String())

	info := SelectWindow(turns, CallContext{}, optsWithMode(WindowAuto))

	if info.Mode != "auto" {
		t.Errorf("Mode = %s, want auto", info.Mode)
	}
	if info.Start != 5 {
		t.Errorf("Start = %d, want 5 (rolling fallback)", info.Start)
	}
}

func TestDayWindowDropsStaleTurns(t *testing.T) {
	text := `[2024-03-01] 택배가 도착했습니다
[2024-03-01] 주소 확인이 필요합니다
[2024-03-10] 오늘 다시 연락드립니다
[2024-03-10] 확인 부탁드립니다`
	turns := ParseThread(text)

	info := SelectWindow(turns, CallContext{}, optsWithMode(WindowRolling))

	if info.Start != 2 {
		t.Errorf("Start = %d, want 2 (turns older than the day window dropped)", info.Start)
	}
	if info.Reason != "day-window restriction" {
		t.Errorf("Reason = %q", info.Reason)
	}
}

func TestDayWindowNeedsTwoStamps(t *testing.T) {
	text := `[2024-03-01] 오래된 메시지
새 메시지
또 다른 메시지`
	turns := ParseThread(text)

	info := SelectWindow(turns, CallContext{}, optsWithMode(WindowRolling))

	if info.Start != 0 {
		t.Errorf("Start = %d, want 0 (single stamp must not restrict)", info.Start)
	}
}

func TestSelectWindowEmptyThread(t *testing.T) {
	info := SelectWindow(nil, CallContext{}, optsWithMode(WindowAuto))
	if info.End != -1 {
		t.Errorf("End = %d, want -1", info.End)
	}
}
