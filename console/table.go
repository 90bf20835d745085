package console

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"QRKara/config"
	"QRKara/gateway"
	"QRKara/logger"
	"QRKara/model"
	"QRKara/session"
	"QRKara/store"
	"QRKara/transport"
)

// TableClient is the per-table surface: the personal song list, this table's
// tab, and the quick-order cart.
type TableClient struct {
	cfg      *config.Config
	gw       *gateway.Client
	sess     *session.Session
	personal *store.PersonalStore
	tab      *store.TabStore
	cart     *store.Cart
	catalog  *store.CatalogStore
	channel  *transport.Channel
	feed     *ReactionFeed
}

// NewTableClient restores the saved session and wires the table surface.
func NewTableClient(cfg *config.Config) (*TableClient, error) {
	sess, err := session.NewStore(cfg.SessionFile).Load()
	if err != nil {
		return nil, fmt.Errorf("restoring session: %w", err)
	}

	t := &TableClient{
		cfg:      cfg,
		gw:       gateway.NewClient(cfg.APIBaseURL, "", cfg.RequestTimeout),
		sess:     sess,
		personal: store.NewPersonalStore(),
		cart:     store.NewCart(),
		catalog:  store.NewCatalogStore(),
		feed:     NewReactionFeed(5 * time.Second),
	}
	t.tab = store.NewTabStore(t.gw)
	t.tab.Track(sess.TableID)

	t.channel = transport.NewChannel(cfg.EventsURL, cfg.ReconnectDelay, transport.Handlers{
		OnNotification: func(message string, admin bool) {
			if !admin {
				Notify(message)
			}
		},
		OnSongFinished: func() {
			t.refreshPersonal()
		},
		OnConsumptionChanged: func(tableID int64) {
			t.refreshAccount(tableID)
		},
		OnAccountUpdate: func(tableID int64) {
			t.refreshAccount(tableID)
		},
		OnProductUpdate: func() {
			t.refreshProducts()
		},
		OnReaction: func(r model.ReactionPayload) {
			t.feed.Push(r)
			fmt.Printf("   %s  (%s)\n", r.Reaction, r.Sender)
		},
	})

	return t, nil
}

func (t *TableClient) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), t.cfg.RequestTimeout+5*time.Second)
}

func (t *TableClient) refreshPersonal() {
	ctx, cancel := t.opCtx()
	defer cancel()
	songs, err := t.gw.FetchPersonalSongs(ctx, t.sess.UserID)
	if err != nil {
		logger.Warn("personal list refresh failed", logger.ErrorField(err))
		return
	}
	t.personal.Replace(songs)
}

func (t *TableClient) refreshAccount(tableID int64) {
	ctx, cancel := t.opCtx()
	defer cancel()
	if err := t.tab.RefreshAccount(ctx, tableID); err != nil {
		// An unreachable accounts module degrades to a placeholder, never a
		// dead client.
		if unavailable(err) {
			Notify("Account status unavailable right now.")
			return
		}
		logger.Warn("account refresh failed", logger.ErrorField(err))
	}
}

func (t *TableClient) refreshProducts() {
	ctx, cancel := t.opCtx()
	defer cancel()
	products, err := t.gw.FetchProducts(ctx)
	if err != nil {
		logger.Warn("catalog refresh failed", logger.ErrorField(err))
		return
	}
	t.catalog.Replace(products)
}

// Run starts the table client loop until ctx ends.
func (t *TableClient) Run(ctx context.Context) error {
	go t.channel.Run(ctx, func() {
		t.refreshPersonal()
		t.refreshAccount(t.sess.TableID)
		t.refreshProducts()
	})

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Printf("table %s, user %s\n", t.sess.TableName, t.sess.Nick)
	fmt.Println("commands: songs | account | catalog | add <product> | inc/dec <product> | cart | order | react <emoji> | quit")

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
		t.execute(fields)
	}
}

func (t *TableClient) execute(fields []string) {
	ctx, cancel := t.opCtx()
	defer cancel()

	argID := func(i int) int64 {
		if len(fields) <= i {
			return 0
		}
		id, _ := strconv.ParseInt(fields[i], 10, 64)
		return id
	}

	var err error
	switch fields[0] {
	case "songs":
		t.refreshPersonal()
		for _, s := range t.personal.Songs() {
			fmt.Printf("  [%s] %s\n", s.State, s.Title)
		}
	case "account":
		t.refreshAccount(t.sess.TableID)
		if a, ok := t.tab.Account(t.sess.TableID); ok {
			fmt.Printf("  consumed %s, paid %s, due %s\n",
				a.TotalConsumed.StringFixed(2), a.TotalPaid.StringFixed(2), a.BalanceDue.StringFixed(2))
		}
	case "catalog":
		t.refreshProducts()
		for _, p := range t.catalog.Products() {
			fmt.Printf("  %d %s %s (stock %d)\n", p.ID, p.Name, p.Price.StringFixed(2), p.Stock)
		}
	case "add":
		if p, ok := t.catalog.Get(argID(1)); ok {
			t.cart.Add(p)
		} else {
			Notify("unknown product")
		}
	case "inc":
		t.cart.Increment(argID(1))
	case "dec":
		t.cart.Decrement(argID(1))
	case "cart":
		for _, line := range t.cart.Lines() {
			fmt.Printf("  %dx %s\n", line.Quantity, line.ProductName)
		}
	case "order":
		if err = t.cart.Submit(ctx, t.gw, t.sess.UserID); err == nil {
			Notify("Order placed.")
			t.refreshAccount(t.sess.TableID)
		}
	case "react":
		if len(fields) > 1 {
			err = t.gw.SendReaction(ctx, model.ReactionPayload{Reaction: fields[1], Sender: t.sess.Nick})
		}
	default:
		Notify("unknown command: " + fields[0])
	}

	if err != nil {
		Notify("error: " + err.Error())
	}
}
