package console

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"QRKara/cache"
	"QRKara/config"
	"QRKara/coordinator"
	"QRKara/gateway"
	"QRKara/logger"
	"QRKara/model"
	"QRKara/reconcile"
	"QRKara/store"
	"QRKara/transport"
)

// Operator is the venue console: it tracks every table's tab, the full
// queue, and the dispatch feed.
type Operator struct {
	cfg      *config.Config
	gw       *gateway.Client
	queue    *store.QueueStore
	tab      *store.TabStore
	cart     *store.Cart
	catalog  *store.CatalogStore
	undo     *reconcile.Undo
	gate     *reconcile.Gate
	promoter *coordinator.Promoter
	ops      *coordinator.Ops
	channel  *transport.Channel
	cache    *cache.Cache
	feed     *ReactionFeed
}

// NewOperator wires the operator console.
func NewOperator(cfg *config.Config) (*Operator, error) {
	warm, err := cache.Connect(cfg)
	if err != nil {
		return nil, err
	}

	o := &Operator{
		cfg:     cfg,
		gw:      gateway.NewClient(cfg.APIBaseURL, cfg.APIKey, cfg.RequestTimeout),
		queue:   store.NewQueueStore(),
		undo:    reconcile.NewUndo(),
		gate:    reconcile.NewGate(newStdinConfirmer()),
		cart:    store.NewCart(),
		catalog: store.NewCatalogStore(),
		cache:   warm,
		feed:    NewReactionFeed(5 * time.Second),
	}
	o.tab = store.NewTabStore(o.gw)
	o.promoter = coordinator.NewPromoter(o.gw, o.queue, o.undo, cfg.UndoTimeout, Notify)
	o.ops = coordinator.NewOps(o.gw, o.queue, o.promoter)

	o.channel = transport.NewChannel(cfg.EventsURL, cfg.ReconnectDelay, transport.Handlers{
		OnNotification: func(message string, admin bool) {
			Notify(message)
		},
		OnQueueUpdate: func(snap model.QueueSnapshot) {
			ctx, cancel := o.opCtx()
			defer cancel()
			o.promoter.HandleSnapshot(ctx, snap)
		},
		OnConsumptionChanged: func(tableID int64) {
			o.refreshAccount(tableID)
		},
		OnAccountUpdate: func(tableID int64) {
			o.refreshAccount(tableID)
		},
		OnProductUpdate: func() {
			o.refreshCatalog()
		},
		OnReaction: func(r model.ReactionPayload) {
			o.feed.Push(r)
			fmt.Printf("   %s  (%s)\n", r.Reaction, r.Sender)
		},
	})

	o.queue.Subscribe(func() {
		ctx, cancel := o.opCtx()
		defer cancel()
		warm.SaveQueue(ctx, o.queue.Snapshot())
	})
	o.tab.Subscribe(func() {
		ctx, cancel := o.opCtx()
		defer cancel()
		for _, a := range o.tab.Accounts() {
			warm.SaveAccount(ctx, a)
		}
	})

	return o, nil
}

func (o *Operator) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), o.cfg.RequestTimeout+5*time.Second)
}

func (o *Operator) refreshCatalog() {
	ctx, cancel := o.opCtx()
	defer cancel()
	products, err := o.gw.FetchProducts(ctx)
	if err != nil {
		logger.Warn("catalog refresh failed", logger.ErrorField(err))
		return
	}
	o.catalog.Replace(products)
}

func (o *Operator) refreshAccount(tableID int64) {
	ctx, cancel := o.opCtx()
	defer cancel()
	if err := o.tab.RefreshAccount(ctx, tableID); err != nil {
		logger.Warn("account refresh failed", logger.Int64("tableId", tableID), logger.ErrorField(err))
	}
}

// Run starts the console: warm start from cache, first full refresh, the
// event channel, and the command loop until ctx ends.
func (o *Operator) Run(ctx context.Context) error {
	defer o.cache.Close()

	// Warm start: render whatever the cache remembers before the network.
	if snap, ok := o.cache.LoadQueue(ctx); ok {
		o.queue.ApplySnapshot(*snap)
		renderQueue(o.queue.Snapshot(), o.queue.Playing())
	}

	go o.channel.Run(ctx, func() {
		// Reconnect-time refresh: events lost during the gap are re-derived
		// from canonical state.
		rctx, cancel := o.opCtx()
		defer cancel()
		if err := o.promoter.Refresh(rctx); err != nil {
			logger.Warn("queue refresh on (re)connect failed", logger.ErrorField(err))
		}
		if err := o.tab.LoadAccounts(rctx); err != nil {
			logger.Warn("account load on (re)connect failed", logger.ErrorField(err))
		}
	})

	return o.commandLoop(ctx)
}

// commandLoop reads one command per line. Deliberately dumb: every command
// maps straight onto a store or coordinator call.
func (o *Operator) commandLoop(ctx context.Context) error {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("commands: queue | accounts | up/down <id> | lazyup/lazydown <id> | remove <id> | play <id> | restart | next | pause | undo | pay <table> <amount> [method] | confirmpay <table> | cancelpay <table> | catalog | users <table> | cadd/cdec <product> | cart | order <user> | orders | dispatch <id...> | cancelorder <id> | previous <table> | broadcast <msg> | deactivate <table> | close <table> | reset | quit")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" {
			return nil
		}
		o.execute(ctx, fields)
	}
}

func (o *Operator) execute(ctx context.Context, fields []string) {
	cmd := fields[0]
	argID := func(i int) int64 {
		if len(fields) <= i {
			return 0
		}
		id, _ := strconv.ParseInt(fields[i], 10, 64)
		return id
	}

	octx, cancel := o.opCtx()
	defer cancel()

	var err error
	switch cmd {
	case "queue":
		err = o.promoter.Refresh(octx)
		renderQueue(o.queue.Snapshot(), o.queue.Playing())
	case "accounts":
		err = o.tab.LoadAccounts(octx)
		for _, a := range o.tab.Accounts() {
			fmt.Printf("  %s: consumed %s, paid %s, due %s\n",
				a.TableName, a.TotalConsumed.StringFixed(2), a.TotalPaid.StringFixed(2), a.BalanceDue.StringFixed(2))
		}
	case "up":
		err = o.ops.Move(octx, argID(1), model.QueuePrimary, model.MoveUp)
	case "down":
		err = o.ops.Move(octx, argID(1), model.QueuePrimary, model.MoveDown)
	case "lazyup":
		err = o.ops.Move(octx, argID(1), model.QueueLazy, model.MoveUp)
	case "lazydown":
		err = o.ops.Move(octx, argID(1), model.QueueLazy, model.MoveDown)
	case "remove":
		songID := argID(1)
		err = o.gate.Request(octx, "Remove this song from the queue?", func(ctx context.Context) error {
			return o.ops.Remove(ctx, songID, model.QueuePrimary)
		})
	case "next":
		err = o.gate.Request(octx, "Skip to the next song?", func(ctx context.Context) error {
			return o.ops.Advance(ctx)
		})
	case "play":
		err = o.ops.Play(octx, argID(1))
	case "restart":
		err = o.ops.Restart(octx)
	case "pause":
		err = o.ops.TogglePause(octx)
	case "undo":
		err = o.undo.Invoke(octx)
	case "pay":
		err = o.pay(octx, fields)
	case "confirmpay":
		err = o.tab.ConfirmOverpayment(octx, argID(1))
	case "cancelpay":
		if err = o.tab.CancelOverpayment(argID(1)); err == nil {
			Notify("Payment cancelled. Please enter a correct amount.")
		}
	case "catalog":
		o.refreshCatalog()
		for _, p := range o.catalog.Products() {
			fmt.Printf("  %d %s %s (stock %d)\n", p.ID, p.Name, p.Price.StringFixed(2), p.Stock)
		}
	case "users":
		var users []model.ConnectedUser
		if users, err = o.gw.FetchConnectedUsers(octx, argID(1)); err == nil {
			for _, u := range users {
				fmt.Printf("  %d %s\n", u.ID, u.Nick)
			}
		}
	case "cadd":
		if p, ok := o.catalog.Get(argID(1)); ok {
			o.cart.Add(p)
		} else {
			Notify("unknown product; run catalog first")
		}
	case "cdec":
		o.cart.Decrement(argID(1))
	case "cart":
		for _, line := range o.cart.Lines() {
			fmt.Printf("  %dx %s\n", line.Quantity, line.ProductName)
		}
	case "order":
		// Quick order on behalf of a connected user at a table; a bare table
		// is never a valid destination.
		if err = o.cart.Submit(octx, o.gw, argID(1)); err == nil {
			Notify("Order placed.")
		}
	case "orders":
		var recent []model.RecentConsumption
		if recent, err = o.gw.FetchRecentConsumptions(octx, 20); err == nil {
			for _, r := range recent {
				mark := " "
				if r.Dispatched {
					mark = "x"
				}
				fmt.Printf("  [%s] #%d %s: %dx %s (%s)\n", mark, r.ID, r.TableName, r.Quantity, r.ProductName, r.LineTotal.StringFixed(2))
			}
		}
	case "dispatch":
		err = o.dispatch(octx, fields[1:])
	case "cancelorder":
		consumptionID := argID(1)
		err = o.gate.Request(octx, "Cancel this order line? The charge is removed from the tab.", func(ctx context.Context) error {
			return o.gw.CancelConsumption(ctx, consumptionID)
		})
	case "previous":
		var prev []model.PreviousAccount
		if prev, err = o.gw.FetchPreviousAccounts(octx, argID(1)); err == nil {
			for _, p := range prev {
				fmt.Printf("  session closed %s: consumed %s, paid %s\n",
					p.ClosedAt.Format("2006-01-02 15:04"), p.TotalConsumed.StringFixed(2), p.TotalPaid.StringFixed(2))
			}
		}
	case "broadcast":
		if len(fields) > 1 {
			err = o.gw.BroadcastMessage(octx, strings.Join(fields[1:], " "))
		}
	case "deactivate":
		err = o.tab.Deactivate(octx, argID(1))
	case "close":
		tableID := argID(1)
		err = o.gate.Request(octx, "Close this table's session? Queued songs are dropped and the table is deactivated.", func(ctx context.Context) error {
			return o.tab.CloseSession(ctx, tableID)
		})
	case "reset":
		err = o.gate.Request(octx, "Reset the night? Tables, users, songs and consumptions will be wiped.", func(ctx context.Context) error {
			return o.gw.ResetNight(ctx)
		})
	default:
		Notify("unknown command: " + cmd)
	}

	if err != nil {
		Notify("error: " + err.Error())
	}
}

// dispatch marks order lines as delivered, sequentially, behind one confirm.
// Not atomic: a failure mid-loop leaves earlier lines marked, and the feed is
// the source of truth for what remains.
func (o *Operator) dispatch(ctx context.Context, args []string) error {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return fmt.Errorf("bad consumption id %q", a)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}
	return o.gate.Request(ctx, fmt.Sprintf("Mark %d order line(s) as dispatched?", len(ids)), func(ctx context.Context) error {
		for i, id := range ids {
			if err := o.gw.MarkDispatched(ctx, id); err != nil {
				return fmt.Errorf("dispatched %d of %d, failed on #%d: %w", i, len(ids), id, err)
			}
		}
		Notify("Order lines dispatched.")
		return nil
	})
}

func (o *Operator) pay(ctx context.Context, fields []string) error {
	if len(fields) < 3 {
		return store.ErrInvalidAmount
	}
	tableID, _ := strconv.ParseInt(fields[1], 10, 64)
	amount, err := decimal.NewFromString(fields[2])
	if err != nil {
		return store.ErrInvalidAmount
	}
	method := "cash"
	if len(fields) > 3 {
		method = fields[3]
	}

	prompt, err := o.tab.SubmitPayment(ctx, tableID, amount, method)
	if err != nil {
		return err
	}
	if prompt != nil {
		Notify(fmt.Sprintf("Amount %s exceeds balance due %s (excess %s). Register as advance payment? confirmpay %d / cancelpay %d",
			prompt.Amount.StringFixed(2), prompt.Balance.StringFixed(2), prompt.Excess.StringFixed(2), tableID, tableID))
		return nil
	}
	Notify("Payment registered.")
	return nil
}
