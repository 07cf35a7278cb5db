package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/siteprobe/siteprobe-cli/internal/order"
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Manage scan-package orders",
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your orders",
	RunE:  runOrdersList,
}

var ordersGetCmd = &cobra.Command{
	Use:   "get <order-id>",
	Short: "Show one order",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrdersGet,
}

var ordersCreateCmd = &cobra.Command{
	Use:   "create <product-type>",
	Short: "Create an order for a scan package",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrdersCreate,
}

var ordersCancelCmd = &cobra.Command{
	Use:   "cancel <order-id>",
	Short: "Cancel a pending order",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrdersCancel,
}

var ordersPayCmd = &cobra.Command{
	Use:   "pay <order-id>",
	Short: "Simulate payment for an order (development backends only)",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrdersPay,
}

var ordersConfirmStripeCmd = &cobra.Command{
	Use:   "confirm-stripe <order-id> <payment-intent-id>",
	Short: "Confirm a Stripe payment for an order",
	Args:  cobra.ExactArgs(2),
	RunE:  runOrdersConfirmStripe,
}

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List purchasable scan packages",
	RunE:  runProducts,
}

func init() {
	rootCmd.AddCommand(ordersCmd)
	rootCmd.AddCommand(productsCmd)

	ordersCmd.AddCommand(ordersListCmd)
	ordersCmd.AddCommand(ordersGetCmd)
	ordersCmd.AddCommand(ordersCreateCmd)
	ordersCmd.AddCommand(ordersCancelCmd)
	ordersCmd.AddCommand(ordersPayCmd)
	ordersCmd.AddCommand(ordersConfirmStripeCmd)

	ordersListCmd.Flags().Int("limit", 20, "Maximum orders to show")
	ordersListCmd.Flags().Int("offset", 0, "Orders to skip (paging)")
	ordersCreateCmd.Flags().StringP("method", "m", "stripe", "Payment method: wechat, alipay or stripe")
}

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runOrdersList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx, stop := commandContext()
	defer stop()

	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	page, err := a.orderClient().List(ctx, limit, offset)
	if err != nil {
		return err
	}

	if a.jsonOut {
		return printJSON(page)
	}

	if len(page.Orders) == 0 {
		fmt.Println("No orders.")
		return nil
	}
	for _, o := range page.Orders {
		fmt.Printf("%s  %-9s  %-20s  %.2f\n", o.OrderID, o.PaymentStatus, o.ProductName, o.Amount)
	}
	if page.Pagination.HasMore {
		fmt.Fprintf(os.Stderr, "More results available: --offset %d\n", offset+limit)
	}
	return nil
}

func runOrdersGet(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx, stop := commandContext()
	defer stop()

	o, err := a.orderClient().Get(ctx, args[0])
	if err != nil {
		return err
	}

	if a.jsonOut {
		return printJSON(o)
	}
	printOrder(o)
	return nil
}

func runOrdersCreate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx, stop := commandContext()
	defer stop()

	methodFlag, _ := cmd.Flags().GetString("method")
	method := order.Method(methodFlag)

	oc := a.orderClient()

	if method == order.MethodStripe {
		cfg := oc.StripeConfig(ctx)
		if !cfg.IsConfigured {
			return fmt.Errorf("stripe is not configured on this backend; try --method wechat or --method alipay")
		}
		result, err := oc.CreateStripe(ctx, args[0])
		if err != nil {
			return err
		}
		if a.jsonOut {
			return printJSON(result)
		}
		printOrder(&result.Order)
		fmt.Printf("Payment intent:  %s\n", result.Payment.PaymentIntentID)
		fmt.Printf("Amount:          %.2f %s\n", result.Payment.Amount/100, result.Payment.Currency)
		fmt.Println("Complete the payment in your browser, then run:")
		fmt.Printf("  siteprobe orders confirm-stripe %s %s\n", result.Order.OrderID, result.Payment.PaymentIntentID)
		return nil
	}

	if method != order.MethodWeChat && method != order.MethodAlipay {
		return fmt.Errorf("invalid payment method %q (want wechat, alipay or stripe)", methodFlag)
	}

	result, err := oc.Create(ctx, args[0], method)
	if err != nil {
		return err
	}
	if a.jsonOut {
		return printJSON(result)
	}
	printOrder(&result.Order)
	if result.Payment.CodeURL != "" {
		fmt.Printf("Scan this code URL to pay: %s\n", result.Payment.CodeURL)
	}
	if result.Payment.PayURL != "" {
		fmt.Printf("Open this URL to pay: %s\n", result.Payment.PayURL)
	}
	return nil
}

func runOrdersCancel(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx, stop := commandContext()
	defer stop()

	if err := a.orderClient().Cancel(ctx, args[0]); err != nil {
		return err
	}
	fmt.Println("Order cancelled.")
	return nil
}

func runOrdersPay(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx, stop := commandContext()
	defer stop()

	o, err := a.orderClient().SimulatePay(ctx, args[0])
	if err != nil {
		return err
	}
	if a.jsonOut {
		return printJSON(o)
	}
	printOrder(o)
	return nil
}

func runOrdersConfirmStripe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx, stop := commandContext()
	defer stop()

	result, err := a.orderClient().ConfirmStripe(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if a.jsonOut {
		return printJSON(result)
	}
	fmt.Printf("Payment status: %s\n", result.PaymentStatus)
	printOrder(&result.Order)
	return nil
}

func runProducts(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx, stop := commandContext()
	defer stop()

	products, err := a.orderClient().Products(ctx)
	if err != nil {
		return err
	}
	if a.jsonOut {
		return printJSON(products)
	}
	for _, p := range products {
		fmt.Printf("%-16s  %6.2f  %3d × %-5s  %s\n", p.ID, p.Price, p.ScanCount, p.ScanType, p.Name)
	}
	return nil
}

func printOrder(o *order.Order) {
	fmt.Printf("Order:           %s (%s)\n", o.OrderID, o.OrderNo)
	fmt.Printf("Product:         %s\n", o.ProductName)
	fmt.Printf("Amount:          %.2f\n", o.Amount)
	fmt.Printf("Payment status:  %s\n", o.PaymentStatus)
	if o.PaymentMethod != "" {
		fmt.Printf("Payment method:  %s\n", o.PaymentMethod)
	}
	if o.PaidAt != "" {
		fmt.Printf("Paid at:         %s\n", o.PaidAt)
	}
}
