package assistant

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"edulibrary/internal/activitylog"
	"edulibrary/internal/catalog"
	"edulibrary/internal/domain"
	"edulibrary/internal/intent"
	"edulibrary/internal/lending"
	"edulibrary/internal/retrieval"
)

// contextTitles is how many recommended titles back an open-ended question.
const contextTitles = 3

// Reply is the composed answer for one user question.
type Reply struct {
	Intent intent.Action
	Text   string
}

// Service routes a question to the lending machine, the retrieval engine,
// or the external generator, and composes the final user-facing text.
// Answer never fails: every failure path degrades into a message.
type Service struct {
	router    *intent.Router
	machine   *lending.Machine
	engine    *retrieval.Engine
	generator domain.Generator    // nil means no credential configured
	activity  *activitylog.Writer // nil disables logging
}

func NewService(router *intent.Router, machine *lending.Machine, engine *retrieval.Engine, generator domain.Generator, activity *activitylog.Writer) *Service {
	return &Service{router: router, machine: machine, engine: engine, generator: generator, activity: activity}
}

// Answer classifies the question, dispatches it, and logs the interaction.
func (s *Service) Answer(user domain.User, question string) Reply {
	action := s.router.Classify(question)
	msgs := messagesFor(user)

	var text string
	switch action {
	case intent.ActionBorrow:
		text = s.answerBorrow(user, question, msgs)
	case intent.ActionReturn:
		text = s.answerReturn(user, msgs)
	case intent.ActionAvailability:
		text = s.answerAvailability(question, msgs)
	case intent.ActionRecommend:
		text = s.answerRecommend(user, msgs)
	default:
		text = s.answerOpenQuery(user, question, msgs)
	}

	if s.activity != nil {
		if err := s.activity.Append(user, question, text); err != nil {
			log.Printf("assistant: activity log write failed: %v", err)
		}
	}
	return Reply{Intent: action, Text: text}
}

func (s *Service) answerBorrow(user domain.User, question string, msgs messages) string {
	receipt, err := s.machine.Borrow(user.ID, question)
	if err != nil {
		return renderLendingError(err, msgs)
	}
	return fmt.Sprintf(msgs.borrowSuccess, receipt.Title, receipt.Until.Format(catalog.DateLayout))
}

func (s *Service) answerReturn(user domain.User, msgs messages) string {
	title, err := s.machine.Return(user.ID)
	if err != nil {
		return renderLendingError(err, msgs)
	}
	return fmt.Sprintf(msgs.returnSuccess, title)
}

func (s *Service) answerAvailability(question string, msgs messages) string {
	avail, err := s.machine.CheckAvailability(question)
	if err != nil {
		if errors.Is(err, lending.ErrNoMatch) || errors.Is(err, lending.ErrUnknownBook) {
			return msgs.availabilityErr
		}
		return msgs.recordsDown
	}
	if avail.Borrowed {
		return fmt.Sprintf(msgs.borrowedUntil, avail.Title, avail.Until.Format(catalog.DateLayout))
	}
	return fmt.Sprintf(msgs.available, avail.Title)
}

func (s *Service) answerRecommend(user domain.User, msgs messages) string {
	recs := s.engine.Recommend(user.Name, contextTitles)
	if len(recs) == 0 {
		return msgs.noRecs
	}
	titles := make([]string, len(recs))
	for i, r := range recs {
		titles[i] = r.Title
	}
	return fmt.Sprintf(msgs.recommendations, strings.Join(titles, ", "))
}

func (s *Service) answerOpenQuery(user domain.User, question string, msgs messages) string {
	if s.generator == nil {
		return msgs.noGeneratorKey
	}
	var context strings.Builder
	for _, r := range s.engine.Recommend(user.Name, contextTitles) {
		context.WriteString("- ")
		context.WriteString(r.Title)
		context.WriteString("\n")
	}
	answer, err := s.generator.Generate(user, question, context.String())
	if err != nil {
		log.Printf("assistant: generator failed: %v", err)
		return msgs.generatorDown
	}
	return answer
}

func renderLendingError(err error, msgs messages) string {
	var borrowed *lending.AlreadyBorrowedError
	switch {
	case errors.As(err, &borrowed):
		return fmt.Sprintf(msgs.alreadyBorrowed, borrowed.Title, borrowed.Until.Format(catalog.DateLayout))
	case errors.Is(err, lending.ErrNoMatch):
		return msgs.noMatch
	case errors.Is(err, lending.ErrUnknownBook):
		return msgs.unknownBook
	case errors.Is(err, lending.ErrLoanLimit):
		return msgs.loanLimit
	case errors.Is(err, lending.ErrNothingToReturn):
		return msgs.nothingToReturn
	case errors.Is(err, catalog.ErrUserNotFound):
		return msgs.unknownUser
	default:
		log.Printf("assistant: lending operation failed: %v", err)
		return msgs.recordsDown
	}
}
