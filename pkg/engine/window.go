package engine

import (
	"regexp"
	"time"
)

// Strong action-demand anchors for auto window selection. Once one of
// these appears, every later turn (the payoff) must stay in scope.
var (
	reStrongOTPRelay = regexp.MustCompile(`(인증|승인)\s*번호[^\n]{0,20}(알려|보내|불러|입력)|(?i)(tell|send|read)\s+(me\s+)?(the\s+)?(otp|code)`)
	reStrongInstall  = regexp.MustCompile(`(앱|어플|프로그램)[을를]?\s*설치|설치해|(?i)install\s+(this|the)\s+(app|apk)`)
	reStrongProtect  = regexp.MustCompile(`(안전|보호|국가\s*관리)\s*계좌|(?i)(safe|protected)\s+account`)
)

// strongDemand reports whether a turn carries a concrete action demand
// that anchors the context window.
func strongDemand(text string) bool {
	if reStrongOTPRelay.MatchString(text) {
		return true
	}
	if reStrongInstall.MatchString(text) {
		return true
	}
	if reStrongProtect.MatchString(text) {
		return true
	}
	// Payment imperative with a concrete amount.
	return rePayImperative.MatchString(text) && reAmount.MatchString(text)
}

// SelectWindow chooses which turns of the thread are in scope and
// marks them. Guaranteed non-empty for a non-empty thread.
func SelectWindow(turns []Turn, callCtx CallContext, opts *ScoringOptions) WindowInfo {
	n := len(turns)
	if n == 0 {
		return WindowInfo{Mode: string(opts.WindowMode), Start: 0, End: -1}
	}

	var info WindowInfo
	switch opts.WindowMode {
	case WindowSticky:
		info = stickyWindow(n, opts)
	case WindowRolling:
		info = rollingWindow(turns, n, opts)
	default:
		info = autoWindow(turns, n, callCtx, opts)
	}

	for i := range turns {
		turns[i].InScope = i >= info.Start && i <= info.End
	}
	return info
}

func stickyWindow(n int, opts *ScoringOptions) WindowInfo {
	start := 0
	if n > opts.StickyCap {
		start = n - opts.StickyCap
	}
	return WindowInfo{Mode: "sticky", Start: start, End: n - 1, Anchors: -1}
}

func rollingWindow(turns []Turn, n int, opts *ScoringOptions) WindowInfo {
	start := 0
	if n > opts.RollingSize {
		start = n - opts.RollingSize
	}
	info := WindowInfo{Mode: "rolling", Start: start, End: n - 1, Anchors: -1}
	return restrictToDayWindow(turns, info, opts)
}

func autoWindow(turns []Turn, n int, callCtx CallContext, opts *ScoringOptions) WindowInfo {
	anchor := -1
	if callCtx.ActiveCall {
		anchor = 0
	} else {
		for i := range turns {
			if turns[i].Role == RoleReceiver {
				continue
			}
			if strongDemand(turns[i].Raw) {
				anchor = i
				break
			}
		}
	}

	if anchor >= 0 {
		start := anchor - opts.Backtrack
		if start < 0 {
			start = 0
		}
		if n-start > opts.StickyCap {
			start = n - opts.StickyCap
		}
		return WindowInfo{Mode: "auto", Start: start, End: n - 1, Reason: "strong-demand anchor", Anchors: anchor}
	}

	info := rollingWindow(turns, n, opts)
	info.Mode = "auto"
	return info
}

// restrictToDayWindow narrows a rolling window to turns within
// DayWindow days of the most recent parseable timestamp, when at least
// two turns carry one. Stale content must not dilute recency; a window
// is still never emptied below the final turn.
func restrictToDayWindow(turns []Turn, info WindowInfo, opts *ScoringOptions) WindowInfo {
	var latest *time.Time
	stamped := 0
	for i := info.Start; i <= info.End; i++ {
		if ts := turns[i].Timestamp; ts != nil {
			stamped++
			if latest == nil || ts.After(*latest) {
				latest = ts
			}
		}
	}
	if stamped < 2 || latest == nil {
		return info
	}

	cutoff := latest.AddDate(0, 0, -opts.DayWindow)
	start := info.Start
	for i := info.Start; i <= info.End; i++ {
		ts := turns[i].Timestamp
		if ts != nil && ts.Before(cutoff) {
			start = i + 1
		}
	}
	if start > info.End {
		start = info.End
	}
	info.Start = start
	info.Reason = "day-window restriction"
	return info
}
