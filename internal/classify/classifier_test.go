package classify

import (
	"testing"

	"github.com/mailsage/mailsage-backend/internal/domain"
)

func TestClassifyCategories(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name    string
		subject string
		body    string
		want    []string
	}{
		{"work", "project update meeting", "the team will present the report", []string{"work", "security", "notification"}},
		{"financial", "invoice attached", "payment due next week", []string{"financial"}},
		{"fallback", "hello", "just saying hi", []string{"general"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(domain.Message{ID: "m1", Subject: tt.subject, Body: tt.body})
			if len(got.Categories) != len(tt.want) {
				t.Fatalf("categories: want=%v got=%v", tt.want, got.Categories)
			}
			for i := range tt.want {
				if got.Categories[i] != tt.want[i] {
					t.Fatalf("categories: want=%v got=%v", tt.want, got.Categories)
				}
			}
		})
	}
}

func TestClassifyPriorityHigh(t *testing.T) {
	c := NewClassifier()
	got := c.Classify(domain.Message{
		ID:      "m1",
		Subject: "URGENT SERVER DOWN",
		Body:    "critical emergency!! respond immediately",
	})
	if got.Priority != domain.PriorityHigh {
		t.Fatalf("priority: want=high got=%s", got.Priority)
	}
}

func TestClassifyPriorityMedium(t *testing.T) {
	c := NewClassifier()
	got := c.Classify(domain.Message{
		ID:      "m1",
		Subject: "please review",
		Body:    "when you have a moment",
	})
	if got.Priority != domain.PriorityMedium {
		t.Fatalf("priority: want=medium got=%s", got.Priority)
	}
}

func TestClassifyPriorityLowForNewsletter(t *testing.T) {
	c := NewClassifier()
	got := c.Classify(domain.Message{
		ID:      "m1",
		Subject: "weekly digest",
		Body:    "fyi this week's newsletter",
	})
	if got.Priority != domain.PriorityLow {
		t.Fatalf("priority: want=low got=%s", got.Priority)
	}
}

func TestClassifySentiment(t *testing.T) {
	c := NewClassifier()

	positive := c.Classify(domain.Message{ID: "p", Subject: "thank you", Body: "great work, really appreciate it"})
	if positive.Sentiment != domain.SentimentPositive {
		t.Fatalf("sentiment: want=positive got=%s", positive.Sentiment)
	}

	negative := c.Classify(domain.Message{ID: "n", Subject: "problem", Body: "the deploy failed, another error"})
	if negative.Sentiment != domain.SentimentNegative {
		t.Fatalf("sentiment: want=negative got=%s", negative.Sentiment)
	}

	neutral := c.Classify(domain.Message{ID: "z", Subject: "schedule", Body: "meeting moved to 3pm"})
	if neutral.Sentiment != domain.SentimentNeutral {
		t.Fatalf("sentiment: want=neutral got=%s", neutral.Sentiment)
	}
}

func TestClassifyReplyForward(t *testing.T) {
	c := NewClassifier()

	reply := c.Classify(domain.Message{ID: "r", Subject: "Re: lunch plans"})
	if !reply.IsReply || reply.IsForward {
		t.Fatalf("Re: want reply=true forward=false got reply=%v forward=%v", reply.IsReply, reply.IsForward)
	}

	forward := c.Classify(domain.Message{ID: "f", Subject: "FW: lunch plans"})
	if forward.IsReply || !forward.IsForward {
		t.Fatalf("FW: want reply=false forward=true got reply=%v forward=%v", forward.IsReply, forward.IsForward)
	}
}

func TestClassifyTags(t *testing.T) {
	c := NewClassifier()
	got := c.Classify(domain.Message{
		ID:      "m1",
		Subject: "Phoenix launch",
		Body:    "the Phoenix rollout starts Monday #launch #phoenix",
	})

	if len(got.Tags) == 0 {
		t.Fatalf("tags: want>0 got=0")
	}
	want := map[string]bool{"launch": true, "phoenix": true, "monday": true}
	for _, tag := range got.Tags {
		if !want[tag] {
			t.Fatalf("unexpected tag %q in %v", tag, got.Tags)
		}
	}
	if len(got.Tags) > 10 {
		t.Fatalf("tags capped at 10, got=%d", len(got.Tags))
	}
}

func TestClassifyWordCount(t *testing.T) {
	c := NewClassifier()
	got := c.Classify(domain.Message{ID: "m1", Subject: "s", Body: "one two three four"})
	if got.WordCount != 4 {
		t.Fatalf("word count: want=4 got=%d", got.WordCount)
	}
}

func TestDetectThreadsGroupsByNormalizedSubject(t *testing.T) {
	d := NewThreadDetector()
	msgs := []domain.Message{
		{ID: "m2", Sender: "b@example.com", Recipients: []string{"a@example.com"}, Subject: "Re: budget", Date: "2026-01-02"},
		{ID: "m1", Sender: "a@example.com", Recipients: []string{"b@example.com"}, Subject: "budget", Date: "2026-01-01"},
		{ID: "m3", Sender: "c@example.com", Subject: "offsite", Date: "2026-01-03"},
	}

	threads, mapping := d.DetectThreads(msgs)
	if len(threads) != 2 {
		t.Fatalf("threads: want=2 got=%d", len(threads))
	}

	budget := threads[0]
	if budget.Subject != "budget" {
		t.Fatalf("first thread subject: want=budget got=%s", budget.Subject)
	}
	if len(budget.MessageIDs) != 2 || budget.MessageIDs[0] != "m1" || budget.MessageIDs[1] != "m2" {
		t.Fatalf("thread messages: want=[m1 m2] got=%v", budget.MessageIDs)
	}
	if budget.StartDate != "2026-01-01" || budget.LastDate != "2026-01-02" {
		t.Fatalf("thread dates: got start=%s last=%s", budget.StartDate, budget.LastDate)
	}
	if len(budget.Participants) != 2 {
		t.Fatalf("participants: want=2 got=%v", budget.Participants)
	}

	if mapping["m1"] != mapping["m2"] {
		t.Fatalf("m1 and m2 must share a thread: %v", mapping)
	}
	if mapping["m3"] == mapping["m1"] {
		t.Fatalf("m3 must not share m1's thread: %v", mapping)
	}
}

func TestNormalizeSubjectStripsNestedPrefixes(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Re: Fwd: budget", "budget"},
		{"FW: status", "status"},
		{"plain subject", "plain subject"},
		{"  Re:  spaced  ", "spaced"},
	}
	for _, tt := range tests {
		if got := NormalizeSubject(tt.in); got != tt.want {
			t.Fatalf("normalize %q: want=%q got=%q", tt.in, tt.want, got)
		}
	}
}
