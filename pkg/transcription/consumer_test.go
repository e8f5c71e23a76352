package transcription_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/advisor/pkg/transcription"
)

type recorder struct {
	mu     sync.Mutex
	events []transcription.Event
	finals []int
}

func (r *recorder) callback(c *transcription.Consumer) transcription.Callback {
	return func(e transcription.Event) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
		r.finals = append(r.finals, len(c.Finals()))
		return nil
	}
}

func (r *recorder) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Text
	}
	return out
}

func final(speaker, text string) transcription.Event {
	return transcription.Event{SpeakerID: speaker, Text: text, Type: transcription.Final}
}

func interim(speaker, text string) transcription.Event {
	return transcription.Event{SpeakerID: speaker, Text: text, Type: transcription.Interim}
}

var _ = Describe("Consumer", func() {
	var (
		c   *transcription.Consumer
		rec *recorder
	)

	BeforeEach(func() {
		c = transcription.NewConsumer(transcription.WithPollInterval(10 * time.Millisecond))
		rec = &recorder{}
		c.SetCallback(rec.callback(c))
		Expect(c.Start()).To(Succeed())
	})

	It("delivers events in order and logs only finals", func() {
		Expect(c.Enqueue(interim("1", "I need"))).To(Succeed())
		Expect(c.Enqueue(final("1", "I need a new debit card"))).To(Succeed())
		Expect(c.Enqueue(interim("2", "Of"))).To(Succeed())
		Expect(c.Enqueue(final("2", "Of course"))).To(Succeed())
		c.Stop()

		Expect(rec.texts()).To(Equal([]string{"I need", "I need a new debit card", "Of", "Of course"}))
		finals := c.Finals()
		Expect(finals).To(HaveLen(2))
		Expect(finals[0].Utterance()).To(Equal("Speaker 1: I need a new debit card"))
		Expect(c.Transcript()).To(Equal([]string{"Speaker 1: I need a new debit card", "Speaker 2: Of course"}))
	})

	It("appends a final before its callback runs", func() {
		Expect(c.Enqueue(interim("1", "a"))).To(Succeed())
		Expect(c.Enqueue(final("1", "ab"))).To(Succeed())
		Expect(c.Enqueue(final("1", "abc"))).To(Succeed())
		c.Stop()

		rec.mu.Lock()
		defer rec.mu.Unlock()
		Expect(rec.finals).To(Equal([]int{0, 1, 2}))
	})

	It("stamps events without a time", func() {
		Expect(c.Enqueue(final("1", "hello"))).To(Succeed())
		c.Stop()
		Expect(c.Finals()[0].At).NotTo(BeZero())
	})

	It("keeps draining after a callback error or panic", func() {
		calls := 0
		c.SetCallback(func(e transcription.Event) error {
			calls++
			switch e.Text {
			case "boom":
				panic("callback exploded")
			case "fail":
				return errors.New("dispatch failed")
			}
			return nil
		})
		Expect(c.Enqueue(final("1", "fail"))).To(Succeed())
		Expect(c.Enqueue(final("1", "boom"))).To(Succeed())
		Expect(c.Enqueue(final("1", "fine"))).To(Succeed())
		c.Stop()

		Expect(calls).To(Equal(3))
		Expect(c.Finals()).To(HaveLen(3))
	})

	It("ends on exactly one sentinel", func() {
		Expect(c.Enqueue(final("1", "before"))).To(Succeed())
		c.Signal()
		c.Signal()
		Eventually(c.Done()).Should(BeClosed())

		Expect(c.Enqueue(final("1", "after"))).To(MatchError(transcription.ErrConsumerStopped))
		Expect(c.Finals()).To(HaveLen(1))
	})

	It("drains every event it accepted when a sentinel races the senders", func() {
		c.Stop()
		for round := range 20 {
			racing := transcription.NewConsumer(transcription.WithQueueSize(4))
			var processed atomic.Int64
			racing.SetCallback(func(transcription.Event) error {
				processed.Add(1)
				return nil
			})
			Expect(racing.Start()).To(Succeed())

			var accepted atomic.Int64
			var wg sync.WaitGroup
			for i := range 16 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if racing.Enqueue(final("1", fmt.Sprintf("utterance %d", i))) == nil {
						accepted.Add(1)
					}
				}()
			}
			racing.Signal()
			wg.Wait()
			Eventually(racing.Done()).Should(BeClosed())

			Expect(processed.Load()).To(Equal(accepted.Load()), "round %d", round)
		}
	})

	It("resets the finals log on restart", func() {
		Expect(c.Enqueue(final("1", "first call"))).To(Succeed())
		c.Stop()
		Expect(c.Finals()).To(HaveLen(1))

		Expect(c.Start()).To(Succeed())
		Expect(c.Finals()).To(BeEmpty())
		c.Stop()
	})

	It("refuses a second Start while running", func() {
		Expect(c.Start()).NotTo(Succeed())
		c.Stop()
	})

	Describe("Handlers", func() {
		It("wires recognizer callbacks into the queue", func() {
			h := c.Handlers()
			h.SessionStarted()
			h.Transcribing(transcription.Event{SpeakerID: "1", Text: "new"})
			h.Transcribed(transcription.Event{SpeakerID: "1", Text: "new card"})
			h.SessionStopped()
			Eventually(c.Done()).Should(BeClosed())

			Expect(rec.texts()).To(Equal([]string{"new", "new card"}))
			Expect(c.Finals()).To(HaveLen(1))
		})

		It("stops the consumer when the session is canceled", func() {
			h := c.Handlers()
			h.Transcribed(transcription.Event{SpeakerID: "1", Text: "hello"})
			h.Canceled(errors.New("quota exceeded"))
			Eventually(c.Done()).Should(BeClosed())
			Expect(c.Finals()).To(HaveLen(1))
		})
	})
})

var _ = Describe("ParseEventType", func() {
	It("parses known types", func() {
		Expect(transcription.ParseEventType("interim")).To(Equal(transcription.Interim))
		Expect(transcription.ParseEventType("FINAL")).To(Equal(transcription.Final))
		Expect(transcription.ParseEventType("")).To(Equal(transcription.Final))
		_, err := transcription.ParseEventType("partial")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Replay", func() {
	It("emits its events and stops the session", func() {
		c := transcription.NewConsumer()
		Expect(c.Start()).To(Succeed())

		r := transcription.NewReplay(interim("1", "new"), final("1", "new card"), final("2", "sure"))
		Expect(r.Start(context.Background(), c.Handlers())).To(Succeed())
		Eventually(c.Done()).Should(BeClosed())
		Expect(r.Stop()).To(Succeed())

		Expect(c.Transcript()).To(Equal([]string{"Speaker 1: new card", "Speaker 2: sure"}))
	})
})
