// Package discovery finds candidate posts on each platform and turns them
// into scored leads.
package discovery

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/sells-group/lead-agent/internal/model"
)

// Post is a raw social post before scoring.
type Post struct {
	Name       string
	ProfileURL string
	Content    string
}

// Source yields candidate posts for one platform.
type Source interface {
	Platform() model.Platform
	Fetch(ctx context.Context) ([]Post, error)
}

// SampleSource returns a random subset of built-in posts. It stands in for
// platform APIs, which are not integrated.
type SampleSource struct {
	platform model.Platform
	posts    []Post
	min, max int

	mu  sync.Mutex
	rng *rand.Rand
}

type sampleRange struct{ min, max int }

// Per-platform fetch sizes, before capping at the sample size.
var sampleRanges = map[model.Platform]sampleRange{
	model.PlatformReddit:   {3, 8},
	model.PlatformFacebook: {2, 5},
	model.PlatformLinkedIn: {1, 3},
}

// NewSampleSource returns the sample source for platform. A nil rng uses a
// randomly seeded generator.
func NewSampleSource(platform model.Platform, rng *rand.Rand) *SampleSource {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	r := sampleRanges[platform]
	return &SampleSource{
		platform: platform,
		posts:    samplePosts[platform],
		min:      r.min,
		max:      r.max,
		rng:      rng,
	}
}

// SampleSources returns one sample source per platform, in discovery order.
// Sources are fetched concurrently, so each gets its own generator seeded
// from rng.
func SampleSources(rng *rand.Rand) []Source {
	sources := make([]Source, 0, len(model.Platforms))
	for _, p := range model.Platforms {
		var child *rand.Rand
		if rng != nil {
			child = rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64()))
		}
		sources = append(sources, NewSampleSource(p, child))
	}
	return sources
}

// Platform implements Source.
func (s *SampleSource) Platform() model.Platform { return s.platform }

// Fetch implements Source.
func (s *SampleSource) Fetch(ctx context.Context) ([]Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.posts) == 0 {
		return []Post{}, nil
	}

	s.mu.Lock()
	n := s.min
	if s.max > s.min {
		n += s.rng.IntN(s.max - s.min + 1)
	}
	perm := s.rng.Perm(len(s.posts))
	s.mu.Unlock()

	if n > len(s.posts) {
		n = len(s.posts)
	}
	out := make([]Post, 0, n)
	for _, i := range perm[:n] {
		out = append(out, s.posts[i])
	}
	return out, nil
}

var samplePosts = map[model.Platform][]Post{
	model.PlatformReddit: {
		{
			Name:       "FitnessSeeker_Tokyo",
			ProfileURL: "https://reddit.com/user/FitnessSeeker_Tokyo",
			Content:    "Looking for a tattoo-friendly gym in Kanagawa area. Any recommendations for English speakers? I'm American and just moved here for work.",
		},
		{
			Name:       "ExpatLifter22",
			ProfileURL: "https://reddit.com/user/ExpatLifter22",
			Content:    "Does anyone know good CrossFit gyms near Zama? Preferably with English-speaking trainers. I'm military stationed here.",
		},
		{
			Name:       "KanagawaNewbie",
			ProfileURL: "https://reddit.com/user/KanagawaNewbie",
			Content:    "New to Kawasaki and need gym recommendations. Back home I did a lot of HIIT and boxing. Any foreigner-friendly places?",
		},
		{
			Name:       "TokyoBayResident",
			ProfileURL: "https://reddit.com/user/TokyoBayResident",
			Content:    "Anyone have experience with gyms that don't discriminate against tattoos? I'm in the Yokohama area.",
		},
		{
			Name:       "EnglishTeacherFit",
			ProfileURL: "https://reddit.com/user/EnglishTeacherFit",
			Content:    "Teaching English in Sagamihara, looking for a gym with English-speaking staff. Any suggestions?",
		},
	},
	model.PlatformFacebook: {
		{
			Name:       "Sarah Johnson",
			ProfileURL: "https://facebook.com/profile/sarah.johnson.example",
			Content:    "Anyone in the Kawasaki area know of good gyms that welcome foreigners? Looking for somewhere I can do HIIT workouts and not feel out of place.",
		},
		{
			Name:       "Mike Chen",
			ProfileURL: "https://facebook.com/profile/mike.chen.example",
			Content:    "Just moved to Kanagawa for work. Back in Australia I was really into CrossFit. Any recommendations for English-friendly gyms?",
		},
		{
			Name:       "Emma Wilson",
			ProfileURL: "https://facebook.com/profile/emma.wilson.example",
			Content:    "Looking for a personal trainer in the Yokohama area who can work with someone who has tattoos. Any recommendations?",
		},
	},
	model.PlatformLinkedIn: {
		{
			Name:       "David Rodriguez",
			ProfileURL: "https://linkedin.com/in/david.rodriguez.example",
			Content:    "New to Japan and looking for fitness communities. Any recommendations for English-speaking gyms in Kanagawa? I'm a software engineer working in Tokyo.",
		},
		{
			Name:       "Jennifer Taylor",
			ProfileURL: "https://linkedin.com/in/jennifer.taylor.example",
			Content:    "Relocated to Kawasaki for work. Looking for professional networks and fitness communities. Any suggestions for international-friendly gyms?",
		},
	},
}
