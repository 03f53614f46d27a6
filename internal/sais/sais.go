// Package sais builds suffix arrays with induced sorting (SA-IS).
//
// The text is lifted to an integer alphabet with a unique terminal symbol
// smaller than every byte, so shorter suffixes sort before their extensions.
package sais

// Sort returns the suffix array of text: a permutation of [0, len(text)) in
// lexicographic suffix order.
func Sort(text []byte) []int {
	n := len(text)
	if n == 0 {
		return []int{}
	}
	s := make([]int, n+1)
	for i, c := range text {
		s[i] = int(c) + 1
	}
	sa := make([]int, n+1)
	build(s, sa, 257)
	// sa[0] is the terminal suffix
	return sa[1:]
}

// build fills sa with the suffix array of s. s must end with a unique 0 and
// every symbol must be < k.
func build(s, sa []int, k int) {
	n := len(s)
	if n == 1 {
		sa[0] = 0
		return
	}
	t := classify(s)
	bkt := bucketSizes(s, k)

	// Stage 1: sort LMS substrings.
	fill(sa, -1)
	tails := bucketTails(bkt)
	for i := n - 1; i >= 1; i-- {
		if isLMS(t, i) {
			c := s[i]
			sa[tails[c]] = i
			tails[c]--
		}
	}
	induce(s, sa, t, bkt)

	m := 0
	for _, p := range sa {
		if isLMS(t, p) {
			sa[m] = p
			m++
		}
	}

	// Name LMS substrings; LMS positions are >= 2 apart so p/2 is collision free.
	names := sa[m:]
	fill(names, -1)
	name := 0
	prev := -1
	for i := 0; i < m; i++ {
		p := sa[i]
		if prev < 0 || !lmsEqual(s, t, prev, p) {
			name++
		}
		prev = p
		names[p/2] = name - 1
	}
	j := n - 1
	for i := n - 1; i >= m; i-- {
		if sa[i] >= 0 {
			sa[j] = sa[i]
			j--
		}
	}

	// Stage 2: sort the reduced problem.
	reduced := sa[n-m:]
	sa1 := sa[:m]
	if name < m {
		build(reduced, sa1, name)
	} else {
		for i, v := range reduced {
			sa1[v] = i
		}
	}

	// Stage 3: induce the full order from sorted LMS suffixes.
	j = 0
	for i := 1; i < n; i++ {
		if isLMS(t, i) {
			reduced[j] = i
			j++
		}
	}
	for i := 0; i < m; i++ {
		sa1[i] = reduced[sa1[i]]
	}
	fill(sa[m:], -1)
	tails = bucketTails(bkt)
	for i := m - 1; i >= 0; i-- {
		p := sa[i]
		sa[i] = -1
		c := s[p]
		sa[tails[c]] = p
		tails[c]--
	}
	induce(s, sa, t, bkt)
}

// classify marks S-type positions true and L-type positions false.
func classify(s []int) []bool {
	n := len(s)
	t := make([]bool, n)
	t[n-1] = true
	for i := n - 2; i >= 0; i-- {
		t[i] = s[i] < s[i+1] || (s[i] == s[i+1] && t[i+1])
	}
	return t
}

func isLMS(t []bool, i int) bool {
	return i > 0 && t[i] && !t[i-1]
}

func induce(s, sa []int, t []bool, bkt []int) {
	n := len(s)
	heads := bucketHeads(bkt)
	for i := 0; i < n; i++ {
		if p := sa[i]; p > 0 && !t[p-1] {
			c := s[p-1]
			sa[heads[c]] = p - 1
			heads[c]++
		}
	}
	tails := bucketTails(bkt)
	for i := n - 1; i >= 0; i-- {
		if p := sa[i]; p > 0 && t[p-1] {
			c := s[p-1]
			sa[tails[c]] = p - 1
			tails[c]--
		}
	}
}

// lmsEqual compares the LMS substrings starting at a and b, including the
// closing LMS symbol and the types of every position.
func lmsEqual(s []int, t []bool, a, b int) bool {
	n := len(s)
	if a == n-1 || b == n-1 {
		return a == b
	}
	for i := 0; ; i++ {
		if s[a+i] != s[b+i] || t[a+i] != t[b+i] {
			return false
		}
		aEnd := i > 0 && isLMS(t, a+i)
		bEnd := i > 0 && isLMS(t, b+i)
		if aEnd || bEnd {
			return aEnd && bEnd
		}
	}
}

func bucketSizes(s []int, k int) []int {
	bkt := make([]int, k)
	for _, c := range s {
		bkt[c]++
	}
	return bkt
}

func bucketHeads(bkt []int) []int {
	heads := make([]int, len(bkt))
	sum := 0
	for i, v := range bkt {
		heads[i] = sum
		sum += v
	}
	return heads
}

func bucketTails(bkt []int) []int {
	tails := make([]int, len(bkt))
	sum := 0
	for i, v := range bkt {
		sum += v
		tails[i] = sum - 1
	}
	return tails
}

func fill(a []int, v int) {
	for i := range a {
		a[i] = v
	}
}
