// Package cli provides the Cobra-based storefront CLI. Every invocation
// behaves like a page load: the cart is rehydrated from storage and coupon
// state lives only for the duration of the command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"storefront/config"
	"storefront/internal/domain"
	"storefront/internal/usecase"
	"storefront/pkg/logger"
	"storefront/pkg/utils"

	"github.com/spf13/cobra"
)

// App is what the commands operate on.
type App struct {
	Catalog  *usecase.CatalogUsecase
	Sessions *usecase.SessionUsecase
	Close    func() error
}

// Builder wires an App from the final configuration.
type Builder func(ctx context.Context, cfg *config.Config) (*App, error)

type state struct {
	cfg     *config.Config
	app     *App
	session string
}

// Execute runs one invocation. build runs once flags are parsed, and the App
// it returns is closed whether or not the command succeeds.
func Execute(ctx context.Context, cfg *config.Config, build Builder, args []string, stdout, stderr io.Writer) error {
	root, st := newRootCmd(cfg, build)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if st.app != nil && st.app.Close != nil {
		if closeErr := st.app.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close: %w", closeErr))
		}
	}
	return err
}

func newRootCmd(cfg *config.Config, build Builder) (*cobra.Command, *state) {
	st := &state{cfg: cfg}
	var storeDriver, storeFile, catalogURL, logLevel string

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Browse the catalog, manage the cart and check out",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// memory would forget the cart between invocations
			if cmd.Flags().Changed("store") || cfg.StorageDriver == "memory" {
				cfg.StorageDriver = storeDriver
			}
			if cmd.Flags().Changed("store-file") {
				cfg.StorageFile = storeFile
			}
			if catalogURL != "" {
				cfg.CatalogURL = catalogURL
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			logger.InitWithWriter(cfg.Env, cfg.LogLevel, cmd.ErrOrStderr())

			if err := cfg.Validate(); err != nil {
				return err
			}
			app, err := build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			st.app = app
			return nil
		},
	}

	root.PersistentFlags().StringVar(&storeDriver, "store", "file", "storage backend: memory|file|postgres|s3")
	root.PersistentFlags().StringVar(&storeFile, "store-file", cfg.StorageFile, "file storage path")
	root.PersistentFlags().StringVar(&catalogURL, "catalog", "", "catalog feed path or URL")
	root.PersistentFlags().StringVar(&st.session, "session", "cli", "cart session name")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level")

	root.AddCommand(newCatalogCmd(st), newCartCmd(st), newCheckoutCmd(st))
	return root, st
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", arg)
	}
	return id, nil
}

func newCatalogCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{Use: "catalog", Short: "Browse products"}

	categoriesCmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories with product counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cats, err := st.app.Catalog.Categories(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range cats {
				fmt.Fprintf(out, "%s (%s): %d\n", c.DisplayName, c.Slug, c.Count)
			}
			return nil
		},
	}

	var category string
	var page, limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List products, one page at a time",
		RunE: func(cmd *cobra.Command, args []string) error {
			products, p, err := st.app.Catalog.ListProducts(cmd.Context(), domain.ProductFilter{
				Category: category,
				Page:     page,
				Limit:    limit,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, prod := range products {
				printProductLine(out, prod)
			}
			fmt.Fprintf(out, "Página %02d de %02d (%d produtos)\n", p.Page, p.TotalPages, p.TotalItems)
			return nil
		},
	}
	listCmd.Flags().StringVar(&category, "category", "", "category slug")
	listCmd.Flags().IntVar(&page, "page", 1, "page number")
	listCmd.Flags().IntVar(&limit, "limit", 0, "products per page")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show product details and related products",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := st.app.Catalog.GetProduct(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printProductLine(out, p)
			if p.ShortDescription != "" {
				fmt.Fprintln(out, p.ShortDescription)
			}
			for _, line := range p.Informations {
				fmt.Fprintln(out, line)
			}
			for _, t := range p.Types {
				price := p.Price
				if t.Price != nil {
					price = *t.Price
				}
				fmt.Fprintf(out, "  tipo: %s (%s)\n", t.Name, utils.BRL(price))
			}

			related, err := st.app.Catalog.Related(cmd.Context(), id)
			if err != nil {
				return err
			}
			if len(related) > 0 {
				fmt.Fprintln(out, "Relacionados:")
				for _, r := range related {
					printProductLine(out, r)
				}
			}
			return nil
		},
	}

	var tab string
	homeCmd := &cobra.Command{
		Use:   "home",
		Short: "Show the products on sale and a home page tab",
		RunE: func(cmd *cobra.Command, args []string) error {
			discounted, err := st.app.Catalog.Discounted(cmd.Context())
			if err != nil {
				return err
			}
			products, err := st.app.Catalog.Home(cmd.Context(), domain.HomeTab(tab))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(discounted) > 0 {
				fmt.Fprintln(out, "Promoções:")
				for _, p := range discounted {
					printProductLine(out, p)
				}
			}
			fmt.Fprintf(out, "%s:\n", tab)
			for _, p := range products {
				printProductLine(out, p)
			}
			return nil
		},
	}
	homeCmd.Flags().StringVar(&tab, "tab", string(domain.HomeTabBestseller), "bestseller|new|sets")

	cmd.AddCommand(categoriesCmd, listCmd, showCmd, homeCmd)
	return cmd
}

func printProductLine(out io.Writer, p domain.Product) {
	line := fmt.Sprintf("#%d %s  %s", p.ID, p.Name, utils.BRL(p.EffectiveUnitPrice()))
	if p.Discount {
		line += fmt.Sprintf(" (de %s, %d%% Off)", utils.BRL(p.Price), p.DiscountPercent)
	}
	if !p.InStock {
		line += " [ESGOTADO]"
	}
	fmt.Fprintln(out, line)
}

// printCart renders a snapshot the way the cart sidebar does.
func printCart(out io.Writer, s domain.CartSnapshot) {
	if len(s.Items) == 0 {
		fmt.Fprintln(out, "Nenhum produto adicionado.")
	}
	for _, item := range s.Items {
		fmt.Fprintf(out, "%dx %s - %s\n", item.Quantity, item.Product.Name, utils.BRL(item.Total()))
	}
	if s.Totals.DiscountPercent > 0 {
		fmt.Fprintf(out, "Subtotal: %s\n", utils.BRL(s.Totals.SubTotal))
		fmt.Fprintf(out, "Cupom: %s (-%s)\n", s.Discount.CouponCode, utils.BRL(s.Totals.DiscountValue))
	}
	fmt.Fprintf(out, "Total: %s\n", utils.BRL(s.Totals.Total))
	fmt.Fprintf(out, "Itens: %02d\n", s.ItemCount)
}

// loadCart rehydrates the session cart and renders every change to out.
func loadCart(cmd *cobra.Command, st *state) (*usecase.CartUsecase, func()) {
	cart := st.app.Sessions.Cart(cmd.Context(), st.session)
	out := cmd.OutOrStdout()
	unsubscribe := cart.Subscribe(domain.CartListenerFunc(func(s domain.CartSnapshot) {
		printCart(out, s)
	}))
	return cart, unsubscribe
}

func newCartCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{Use: "cart", Short: "Inspect and change the cart"}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			cart := st.app.Sessions.Cart(cmd.Context(), st.session)
			printCart(cmd.OutOrStdout(), cart.Snapshot())
			return nil
		},
	}

	var qty int
	var typeName string
	addCmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := st.app.Catalog.GetProduct(cmd.Context(), id)
			if err != nil {
				return err
			}
			p, err = st.app.Catalog.ResolveType(p, typeName)
			if err != nil {
				return err
			}
			cart, unsubscribe := loadCart(cmd, st)
			defer unsubscribe()
			return cart.Add(cmd.Context(), p, qty)
		},
	}
	addCmd.Flags().IntVar(&qty, "qty", 1, "quantity")
	addCmd.Flags().StringVar(&typeName, "type", "", "product type")

	lineCmd := func(use, short string, op func(*usecase.CartUsecase, context.Context, int) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				cart, unsubscribe := loadCart(cmd, st)
				defer unsubscribe()
				before := cart.Snapshot()
				if err := op(cart, cmd.Context(), id); err != nil {
					return err
				}
				if equalCarts(before, cart.Snapshot()) {
					printCart(cmd.OutOrStdout(), before)
				}
				return nil
			},
		}
	}

	cmd.AddCommand(
		showCmd,
		addCmd,
		lineCmd("inc", "Increase a line by one", (*usecase.CartUsecase).Increase),
		lineCmd("dec", "Decrease a line by one (never below one)", (*usecase.CartUsecase).Decrease),
		lineCmd("remove", "Remove a line", (*usecase.CartUsecase).Remove),
	)
	return cmd
}

func equalCarts(a, b domain.CartSnapshot) bool {
	if len(a.Items) != len(b.Items) {
		return false
	}
	for i := range a.Items {
		if a.Items[i].Product.ID != b.Items[i].Product.ID || a.Items[i].Quantity != b.Items[i].Quantity {
			return false
		}
	}
	return true
}

func newCheckoutCmd(st *state) *cobra.Command {
	var coupon string
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Compose the order message and hand-off URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cart := st.app.Sessions.Cart(cmd.Context(), st.session)
			out := cmd.OutOrStdout()

			if strings.TrimSpace(coupon) != "" {
				res, err := cart.ApplyCoupon(cmd.Context(), coupon)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), res.Message)
			}

			order, err := cart.Checkout()
			if errors.Is(err, domain.ErrEmptyCart) {
				return errors.New(domain.CheckoutEmptyMessage)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(out, order.Message)
			fmt.Fprintln(out)
			fmt.Fprintln(out, order.URL)
			return nil
		},
	}
	cmd.Flags().StringVar(&coupon, "coupon", "", "coupon code")
	return cmd
}
