package control

import (
	"context"
	"net/http"
	"time"

	"connectrpc.com/connect"

	"github.com/mcdev12/refbox/go/internal/editor"
	"github.com/mcdev12/refbox/go/internal/models"
	"github.com/mcdev12/refbox/go/internal/tournament"
)

const EditorServiceName = "refbox.v1.EditorService"

const (
	StartSessionProcedure   = "/refbox.v1.EditorService/StartSession"
	AddItemProcedure        = "/refbox.v1.EditorService/AddItem"
	EditItemProcedure       = "/refbox.v1.EditorService/EditItem"
	DeleteItemProcedure     = "/refbox.v1.EditorService/DeleteItem"
	GetItemProcedure        = "/refbox.v1.EditorService/GetItem"
	PrintableListsProcedure = "/refbox.v1.EditorService/PrintableLists"
	ApplyChangesProcedure   = "/refbox.v1.EditorService/ApplyChanges"
	AbortSessionProcedure   = "/refbox.v1.EditorService/AbortSession"
)

const (
	ListPenalties = "penalties"
	ListWarnings  = "warnings"
	ListFouls     = "fouls"
)

// listEditor erases the item and bucket types of an editor.Editor so one set
// of handlers serves all three lists.
type listEditor interface {
	start() error
	add(req *EditorRequest) error
	edit(req *EditorRequest) error
	remove(req *EditorRequest) error
	get(req *EditorRequest) (*ItemResponse, error)
	lines(now time.Time) (map[string][]editor.Line, error)
	apply(now time.Time) error
	abort()
}

type typedEditor[I any, K ~string] struct {
	ed          *editor.Editor[I, K]
	parseBucket func(string) (K, error)
	parseItem   func(*ItemFields) (I, error)
}

func (t typedEditor[I, K]) start() error { return t.ed.StartSession() }

func (t typedEditor[I, K]) add(req *EditorRequest) error {
	bucket, err := t.parseBucket(req.Bucket)
	if err != nil {
		return err
	}
	item, err := t.parseItem(req.Item)
	if err != nil {
		return err
	}
	return t.ed.AddItem(bucket, item)
}

// edit keeps the entry in its bucket unless NewBucket is set.
func (t typedEditor[I, K]) edit(req *EditorRequest) error {
	bucket, err := t.parseBucket(req.Bucket)
	if err != nil {
		return err
	}
	newBucket := bucket
	if req.NewBucket != "" {
		if newBucket, err = t.parseBucket(req.NewBucket); err != nil {
			return err
		}
	}
	item, err := t.parseItem(req.Item)
	if err != nil {
		return err
	}
	return t.ed.EditItem(bucket, req.Index, newBucket, item)
}

func (t typedEditor[I, K]) remove(req *EditorRequest) error {
	bucket, err := t.parseBucket(req.Bucket)
	if err != nil {
		return err
	}
	return t.ed.DeleteItem(bucket, req.Index)
}

func (t typedEditor[I, K]) get(req *EditorRequest) (*ItemResponse, error) {
	bucket, err := t.parseBucket(req.Bucket)
	if err != nil {
		return nil, err
	}
	d, err := t.ed.GetItem(bucket, req.Index)
	if err != nil {
		return nil, err
	}
	return &ItemResponse{Bucket: string(d.Bucket), Item: d.Item, Hint: d.Hint}, nil
}

func (t typedEditor[I, K]) lines(now time.Time) (map[string][]editor.Line, error) {
	lists, err := t.ed.PrintableLists(now)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]editor.Line, len(lists))
	for k, v := range lists {
		out[string(k)] = v
	}
	return out, nil
}

func (t typedEditor[I, K]) apply(now time.Time) error { return t.ed.ApplyChanges(now) }
func (t typedEditor[I, K]) abort()                   { t.ed.AbortSession() }

// EditorService exposes the penalty, warning and foul editors.
type EditorService struct {
	lists map[string]listEditor
	clock Clock
	waker Waker
}

func NewEditorService(penalties *editor.PenaltyEditor, warnings *editor.WarningEditor, fouls *editor.FoulEditor, clock Clock, waker Waker) *EditorService {
	return &EditorService{
		lists: map[string]listEditor{
			ListPenalties: typedEditor[tournament.Penalty, models.Color]{
				ed: penalties, parseBucket: parseColor, parseItem: penaltyFields,
			},
			ListWarnings: typedEditor[tournament.InfractionDetails, models.Color]{
				ed: warnings, parseBucket: parseColor, parseItem: infractionFields,
			},
			ListFouls: typedEditor[tournament.InfractionDetails, models.OptColor]{
				ed: fouls, parseBucket: parseOptColor, parseItem: infractionFields,
			},
		},
		clock: clock,
		waker: waker,
	}
}

// Handler returns the mount path and handler of the service.
func (s *EditorService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{}), connect.WithInterceptors(logInterceptor())}, opts...)

	mux := http.NewServeMux()
	mux.Handle(StartSessionProcedure, connect.NewUnaryHandler(StartSessionProcedure, s.StartSession, opts...))
	mux.Handle(AddItemProcedure, connect.NewUnaryHandler(AddItemProcedure, s.AddItem, opts...))
	mux.Handle(EditItemProcedure, connect.NewUnaryHandler(EditItemProcedure, s.EditItem, opts...))
	mux.Handle(DeleteItemProcedure, connect.NewUnaryHandler(DeleteItemProcedure, s.DeleteItem, opts...))
	mux.Handle(GetItemProcedure, connect.NewUnaryHandler(GetItemProcedure, s.GetItem, opts...))
	mux.Handle(PrintableListsProcedure, connect.NewUnaryHandler(PrintableListsProcedure, s.PrintableLists, opts...))
	mux.Handle(ApplyChangesProcedure, connect.NewUnaryHandler(ApplyChangesProcedure, s.ApplyChanges, opts...))
	mux.Handle(AbortSessionProcedure, connect.NewUnaryHandler(AbortSessionProcedure, s.AbortSession, opts...))
	return "/" + EditorServiceName + "/", mux
}

func (s *EditorService) list(req *EditorRequest) (listEditor, error) {
	l, ok := s.lists[req.List]
	if !ok {
		return nil, toConnectError(badRequest("unknown list %q", req.List))
	}
	return l, nil
}

func (s *EditorService) StartSession(ctx context.Context, req *connect.Request[EditorRequest]) (*connect.Response[Empty], error) {
	l, err := s.list(req.Msg)
	if err != nil {
		return nil, err
	}
	if err := l.start(); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}

func (s *EditorService) AddItem(ctx context.Context, req *connect.Request[EditorRequest]) (*connect.Response[Empty], error) {
	l, err := s.list(req.Msg)
	if err != nil {
		return nil, err
	}
	if err := l.add(req.Msg); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}

func (s *EditorService) EditItem(ctx context.Context, req *connect.Request[EditorRequest]) (*connect.Response[Empty], error) {
	l, err := s.list(req.Msg)
	if err != nil {
		return nil, err
	}
	if err := l.edit(req.Msg); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}

func (s *EditorService) DeleteItem(ctx context.Context, req *connect.Request[EditorRequest]) (*connect.Response[Empty], error) {
	l, err := s.list(req.Msg)
	if err != nil {
		return nil, err
	}
	if err := l.remove(req.Msg); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}

func (s *EditorService) GetItem(ctx context.Context, req *connect.Request[EditorRequest]) (*connect.Response[ItemResponse], error) {
	l, err := s.list(req.Msg)
	if err != nil {
		return nil, err
	}
	item, err := l.get(req.Msg)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(item), nil
}

func (s *EditorService) PrintableLists(ctx context.Context, req *connect.Request[EditorRequest]) (*connect.Response[PrintableListsResponse], error) {
	l, err := s.list(req.Msg)
	if err != nil {
		return nil, err
	}
	lists, err := l.lines(s.clock.Now())
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&PrintableListsResponse{Lists: lists}), nil
}

// ApplyChanges commits the session. A list left too long is still committed,
// so the orchestrator is woken on that error too.
func (s *EditorService) ApplyChanges(ctx context.Context, req *connect.Request[EditorRequest]) (*connect.Response[Empty], error) {
	l, err := s.list(req.Msg)
	if err != nil {
		return nil, err
	}
	err = l.apply(s.clock.Now())
	s.waker.Wake()
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}

func (s *EditorService) AbortSession(ctx context.Context, req *connect.Request[EditorRequest]) (*connect.Response[Empty], error) {
	l, err := s.list(req.Msg)
	if err != nil {
		return nil, err
	}
	l.abort()
	return connect.NewResponse(&Empty{}), nil
}
