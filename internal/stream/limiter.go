package stream

import "sync"

// limiter caps concurrent sweep streams per client IP and in total.
type limiter struct {
	mu       sync.Mutex
	open     map[string]int
	total    int
	maxPerIP int
	maxTotal int
}

func newLimiter(maxPerIP, maxTotal int) *limiter {
	if maxTotal <= 0 {
		maxTotal = 1000
	}
	return &limiter{
		open:     make(map[string]int),
		maxPerIP: maxPerIP,
		maxTotal: maxTotal,
	}
}

// acquire reserves a slot for ip. It reports false when either cap is hit.
func (l *limiter) acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.total >= l.maxTotal || l.open[ip] >= l.maxPerIP {
		return false
	}
	l.open[ip]++
	l.total++
	return true
}

func (l *limiter) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, ok := l.open[ip]
	if !ok {
		return
	}
	if n <= 1 {
		delete(l.open, ip)
	} else {
		l.open[ip] = n - 1
	}
	l.total--
}

func (l *limiter) count(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.open[ip]
}
