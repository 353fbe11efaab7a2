package comments

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pribylovaa/car-marketplace/internal/session"
)

// State — состояние редактора одного комментария.
type State int

const (
	Viewing State = iota
	Editing
	Replying
	ConfirmingDelete
	Deleted
)

func (s State) String() string {
	switch s {
	case Viewing:
		return "viewing"
	case Editing:
		return "editing"
	case Replying:
		return "replying"
	case ConfirmingDelete:
		return "confirming_delete"
	case Deleted:
		return "deleted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrInvalidTransition — действие недопустимо в текущем состоянии.
var ErrInvalidTransition = errors.New("invalid transition")

// Submitter — куда уходят действия редактора.
type Submitter interface {
	Edit(ctx context.Context, text string) error
	Reply(ctx context.Context, text string) error
	Delete(ctx context.Context) error
}

// Editor — машина состояний авторинга одного комментария:
//
//	Viewing -> Editing -> Viewing
//	Viewing -> Replying -> Viewing
//	Viewing -> ConfirmingDelete -> Viewing | Deleted
//
// Активно не больше одного не-Viewing состояния. Правка и ответ используют один
// черновик и одну проверку текста, различается только цель отправки.
type Editor struct {
	validate func(string) (string, error)

	mu    sync.Mutex
	state State
	draft string
}

// NewEditor создаёт редактор; validate — проверка черновика перед отправкой.
func NewEditor(validate func(string) (string, error)) *Editor {
	return &Editor{validate: validate}
}

// NewEditor — редактор с проверкой текста сервиса.
func (s *Service) NewEditor() *Editor {
	return NewEditor(s.ValidateText)
}

func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state
}

func (e *Editor) Draft() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.draft
}

// StartEdit открывает правку с текущим текстом комментария в черновике.
func (e *Editor) StartEdit(current string) error {
	return e.enter(Editing, current)
}

// StartReply открывает ответ с пустым черновиком.
func (e *Editor) StartReply() error {
	return e.enter(Replying, "")
}

// RequestDelete просит подтверждения удаления.
func (e *Editor) RequestDelete() error {
	return e.enter(ConfirmingDelete, "")
}

func (e *Editor) enter(to State, draft string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Viewing {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.state, to)
	}

	e.state = to
	e.draft = draft

	return nil
}

// SetDraft меняет черновик правки или ответа.
func (e *Editor) SetDraft(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Editing && e.state != Replying {
		return fmt.Errorf("%w: set draft in %s", ErrInvalidTransition, e.state)
	}

	e.draft = text

	return nil
}

// Cancel возвращает в Viewing из любого активного состояния.
func (e *Editor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Deleted {
		return
	}

	e.state = Viewing
	e.draft = ""
}

// Submit отправляет черновик правки или ответа.
// При ошибке (проверки или бэкенда) состояние и черновик сохраняются для повтора.
func (e *Editor) Submit(ctx context.Context, s Submitter) error {
	e.mu.Lock()
	state, draft := e.state, e.draft
	e.mu.Unlock()

	if state != Editing && state != Replying {
		return fmt.Errorf("%w: submit in %s", ErrInvalidTransition, state)
	}

	text, err := e.validate(draft)
	if err != nil {
		return err
	}

	if state == Editing {
		err = s.Edit(ctx, text)
	} else {
		err = s.Reply(ctx, text)
	}
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == state {
		e.state = Viewing
		e.draft = ""
	}

	return nil
}

// ConfirmDelete выполняет удаление: успех -> Deleted, ошибка -> Viewing.
func (e *Editor) ConfirmDelete(ctx context.Context, s Submitter) error {
	e.mu.Lock()
	state := e.state
	e.mu.Unlock()

	if state != ConfirmingDelete {
		return fmt.Errorf("%w: delete in %s", ErrInvalidTransition, state)
	}

	err := s.Delete(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		e.state = Viewing
		return err
	}

	e.state = Deleted

	return nil
}

// ThreadSubmitter направляет действия редактора в ветку от имени сессии.
type ThreadSubmitter struct {
	Thread    *Thread
	Session   session.Session
	CommentID int64
}

func (ts ThreadSubmitter) Edit(ctx context.Context, text string) error {
	_, err := ts.Thread.Update(ctx, ts.Session, ts.CommentID, text)
	return err
}

func (ts ThreadSubmitter) Reply(ctx context.Context, text string) error {
	_, err := ts.Thread.Reply(ctx, ts.Session, ts.CommentID, text)
	return err
}

func (ts ThreadSubmitter) Delete(ctx context.Context) error {
	return ts.Thread.Delete(ctx, ts.Session, ts.CommentID)
}
