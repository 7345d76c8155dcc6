package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"pranzo-storefront/internal/catalog"
	"pranzo-storefront/internal/config"
	"pranzo-storefront/internal/domain"
	"pranzo-storefront/internal/gateway"
	"pranzo-storefront/internal/logger"
	"pranzo-storefront/internal/pricing"
	"pranzo-storefront/internal/seed"
	"pranzo-storefront/internal/store"
	"pranzo-storefront/internal/storefront"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	var (
		f        domain.Filter
		sortBy   string
		minPrice string
		maxPrice string
		addID    string
		removeID string
		qty      int
		size     string
		extra    string
		showCart bool
		checkout bool
	)
	flag.StringVar(&f.Search, "search", "", "match product names")
	flag.StringVar(&f.Category, "category", "", "category")
	flag.StringVar(&f.Subcategory, "subcategory", "", "subcategory")
	flag.StringVar(&f.Brand, "brand", "", "brand")
	flag.StringVar(&f.Color, "color", "", "color")
	flag.StringVar(&f.Size, "size-filter", "", "size offered by the product")
	flag.StringVar(&f.Supplier, "supplier", "", "supplier")
	flag.StringVar(&minPrice, "min", "", "minimum effective price")
	flag.StringVar(&maxPrice, "max", "", "maximum effective price")
	flag.StringVar(&sortBy, "sort", "", "price-asc, price-desc, name-asc or name-desc")
	flag.StringVar(&addID, "add", "", "add this product id to the cart")
	flag.StringVar(&removeID, "remove", "", "remove the cart line of this product id with -size and -extra")
	flag.IntVar(&qty, "qty", 1, "quantity to add")
	flag.StringVar(&size, "size", "", "size for -add and -remove")
	flag.StringVar(&extra, "extra", "", "extra for -add and -remove")
	flag.BoolVar(&showCart, "cart", false, "print the cart")
	flag.BoolVar(&checkout, "checkout", false, "price and clear the cart")
	flag.Parse()

	cfg := config.FromEnv()
	log := logger.Must(cfg.Env, cfg.LogLevel).Named("catalog")
	defer func() { _ = log.Sync() }()

	var err error
	if f.MinPrice, err = parsePrice(minPrice); err != nil {
		log.Fatal("invalid -min", zap.Error(err))
	}
	if f.MaxPrice, err = parsePrice(maxPrice); err != nil {
		log.Fatal("invalid -max", zap.Error(err))
	}
	key, ok := catalog.ParseSortKey(sortBy)
	if !ok {
		log.Fatal("invalid -sort", zap.String("sort", sortBy))
	}
	f.SortBy = key

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.RequestTimeout)
	defer cancel()

	mirror, closeMirror, err := openMirror(cfg, log)
	if err != nil {
		log.Fatal("open cart mirror", zap.Error(err))
	}
	defer closeMirror()

	client := gateway.NewClient(cfg.APIBaseURL, gateway.WithTimeout(cfg.RequestTimeout), gateway.WithLogger(log))
	syncer := gateway.NewSyncer(ctx, client, gateway.WithSyncLogger(log))
	defer syncer.Close()

	st := store.New(store.WithCartMirror(mirror), store.WithLogger(log))
	st.Hydrate(ctx)
	session := storefront.NewSession(st, client, syncer, log)
	if err := session.Load(ctx, seed.Products(st.Now())); err != nil {
		log.Warn("backend unreachable, showing the bundled catalog", zap.Error(err))
	}

	out := os.Stdout
	switch {
	case addID != "":
		p, ok := st.Product(addID)
		if !ok || p.IsArchived {
			log.Fatal("product not available", zap.String("product_id", addID))
		}
		st.AddToCart(p, qty, size, extra)
		printCart(out, st)
	case removeID != "":
		st.RemoveCartLine(domain.CartKey{ProductID: removeID, Size: size, Extra: extra})
		printCart(out, st)
	case showCart:
		printCart(out, st)
	case checkout:
		sum, err := session.Checkout()
		if errors.Is(err, storefront.ErrEmptyCart) {
			fmt.Fprintln(out, "cart is empty")
			return
		}
		if err != nil {
			log.Fatal("checkout", zap.Error(err))
		}
		printCheckout(out, sum)
	default:
		st.SetFilters(f)
		printCatalog(out, st.Visible(), st.Now())
	}
}

func parsePrice(raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// openMirror prefers Redis when REDIS_URL is set and falls back to CART_FILE.
func openMirror(cfg config.Config, log *zap.Logger) (store.CartMirror, func(), error) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		return store.NewRedisMirror(client, cfg.CartNamespace, log), func() { _ = client.Close() }, nil
	}
	m, err := store.NewFileMirror(cfg.CartFile, log)
	if err != nil {
		return nil, nil, err
	}
	return m, func() {}, nil
}

func printCatalog(w io.Writer, products []domain.Product, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSAVE\tOFFER")
	for _, p := range products {
		offer, save := "", ""
		if pricing.IsOfferActive(p, now) {
			save = pricing.Format(pricing.SavingsPerUnit(p, now))
			left := pricing.RemainingOfferTime(p, now)
			offer = fmt.Sprintf("-%s%% (%dd %02dh %02dm left)", p.DiscountPercentage.String(), left.Days, left.Hours, left.Minutes)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, pricing.Format(pricing.EffectiveUnitPrice(p, now)), save, offer)
	}
	_ = tw.Flush()
}

func printCart(w io.Writer, st *store.Store) {
	now := st.Now()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tEXTRA\tQTY\tTOTAL")
	for _, it := range st.State().Cart {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", it.Product.ID, it.Product.Name, it.SelectedSize, it.SelectedExtra,
			it.Quantity, pricing.Format(pricing.ItemTotal(it, now)))
	}
	fmt.Fprintf(tw, "\t\t\t\t%d\t%s\n", st.CartCount(), pricing.Format(st.CartTotal()))
	_ = tw.Flush()
}

func printCheckout(w io.Writer, sum storefront.CheckoutSummary) {
	fmt.Fprintf(w, "Order %s\n", sum.At.Format(time.DateTime))
	for _, l := range sum.Lines {
		fmt.Fprintf(w, "  %d x %s", l.Quantity, l.Name)
		if l.Size != "" {
			fmt.Fprintf(w, " (%s)", l.Size)
		}
		if l.Extra != "" {
			fmt.Fprintf(w, " + %s", l.Extra)
		}
		fmt.Fprintf(w, "  %s\n", pricing.Format(l.LineTotal))
	}
	fmt.Fprintf(w, "Total: %s\n", pricing.Format(sum.Total))
	if sum.Savings.IsPositive() {
		fmt.Fprintf(w, "You save: %s\n", pricing.Format(sum.Savings))
	}
	for _, id := range sum.Skipped {
		fmt.Fprintf(w, "  skipped %s (no longer available)\n", id)
	}
}
