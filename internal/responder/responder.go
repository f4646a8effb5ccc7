// Package responder composes catalog-grounded replies without any external
// service. Output depends only on its inputs and the injected random source.
package responder

import (
	"math/rand"
	"sync"
	"time"

	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
	"github.com/quinta-thw/librarymanager-ist4070/internal/intent"
	"github.com/quinta-thw/librarymanager-ist4070/internal/resolver"
)

// Rand is the randomness the responder needs for template variety and
// recommendation shuffling. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// lockedRand serialises access to a Rand shared between sessions.
type lockedRand struct {
	mu sync.Mutex
	r  Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

func (l *lockedRand) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Shuffle(n, swap)
}

// Request carries everything one reply is built from.
type Request struct {
	Intent      intent.Intent
	Utterance   string
	Role        catalog.Role
	DisplayName string
	Catalog     []catalog.Entry
	Ref         resolver.Reference
	AIEnabled   bool
}

// Responder is the local reply generator.
type Responder struct {
	classifier *intent.Classifier
	rnd        Rand
}

// New creates a Responder. A nil rnd uses a time-seeded source.
func New(classifier *intent.Classifier, rnd Rand) *Responder {
	if classifier == nil {
		classifier = intent.New(nil)
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Responder{classifier: classifier, rnd: &lockedRand{r: rnd}}
}

// Respond builds the reply for req.
func (r *Responder) Respond(req Request) string {
	switch req.Intent.Kind {
	case intent.DirectQuestion:
		return r.direct(req)
	case intent.CasualConversation:
		return r.casual(req)
	case intent.Help:
		return r.help(req)
	case intent.Greeting:
		return r.greeting(req)
	case intent.Statistics:
		return r.statistics(req)
	case intent.Recommend:
		return r.recommend(req)
	case intent.Search:
		return r.search(req)
	case intent.AddBookGuidance:
		return r.addBook(req)
	case intent.GenreInquiry:
		return r.genres(req)
	case intent.RatingInquiry:
		return ratingGuide
	case intent.StatusInquiry:
		return r.statuses(req)
	}
	return r.fallback(req)
}

// asTopic re-dispatches req through the keyword buckets, skipping the
// question and casual layers.
func (r *Responder) asTopic(req Request) string {
	req.Intent = r.classifier.Topic(req.Utterance)
	req.Ref = resolver.Lookup(req.Intent, req.Utterance, req.Catalog)
	return r.Respond(req)
}

// rewrite answers req as if the user had typed utterance with intent in.
func (r *Responder) rewrite(req Request, in intent.Intent, utterance string) string {
	req.Intent = in
	req.Utterance = utterance
	req.Ref = resolver.Lookup(in, utterance, req.Catalog)
	return r.Respond(req)
}

func (r *Responder) pick(options []string) string {
	return options[r.rnd.Intn(len(options))]
}
