package version

import (
	"strconv"
	"strings"
)

// isNewer reports whether candidate is a strictly newer release than
// current. Malformed versions never count as newer, and any release
// compares newer than its own prereleases.
func isNewer(candidate, current string) bool {
	cMajor, cMinor, cPatch, cPre, ok := parseSemver(candidate)
	if !ok {
		return false
	}
	uMajor, uMinor, uPatch, uPre, ok := parseSemver(current)
	if !ok {
		return false
	}

	if cMajor != uMajor {
		return cMajor > uMajor
	}
	if cMinor != uMinor {
		return cMinor > uMinor
	}
	if cPatch != uPatch {
		return cPatch > uPatch
	}

	// Same core version: a release beats a prerelease
	if cPre == "" && uPre != "" {
		return true
	}
	if cPre != "" && uPre == "" {
		return false
	}
	return comparePrerelease(cPre, uPre) > 0
}

func parseSemver(v string) (major, minor, patch int, prerelease string, ok bool) {
	v = strings.TrimPrefix(v, "v")

	if i := strings.IndexByte(v, '-'); i >= 0 {
		prerelease = v[i+1:]
		v = v[:i]
	}

	parts := strings.Split(v, ".")
	if len(parts) != 3 {
		return 0, 0, 0, "", false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, 0, 0, "", false
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], prerelease, true
}

// comparePrerelease orders prerelease strings per semver: identifiers
// compare numerically when both are numeric, lexically otherwise, and
// a longer identifier list wins a shared prefix.
func comparePrerelease(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")

	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aNum := strconv.Atoi(as[i])
		bn, bNum := strconv.Atoi(bs[i])
		switch {
		case aNum == nil && bNum == nil:
			if an != bn {
				if an > bn {
					return 1
				}
				return -1
			}
		case aNum == nil:
			return -1 // numeric sorts before alphanumeric
		case bNum == nil:
			return 1
		default:
			if c := strings.Compare(as[i], bs[i]); c != 0 {
				return c
			}
		}
	}

	switch {
	case len(as) > len(bs):
		return 1
	case len(as) < len(bs):
		return -1
	}
	return 0
}
