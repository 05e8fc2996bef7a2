package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/example/storefront/pkg/grpc"
	"github.com/example/storefront/pkg/service"
	"github.com/spf13/cobra"
)

func productCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Inspect catalog products",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get [id]",
		Short: "Show a product with its stock level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd.Context(), opts, func(ctx context.Context, admin *grpc.AdminServiceClient) error {
				product, err := admin.GetProduct(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), product)
			})
		},
	})
	return cmd
}

func stockCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Manage stock levels",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "adjust [product-id] [delta]",
		Short: "Add delta (may be negative) to a product's stock level",
		Example: `  storectl stock adjust chair-cantilever 10
  storectl stock adjust chair-cantilever -- -2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("delta must be an integer: %w", err)
			}
			return withAdmin(cmd.Context(), opts, func(ctx context.Context, admin *grpc.AdminServiceClient) error {
				product, err := admin.AdjustStock(ctx, args[0], delta)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s stock level: %d\n", product.ID, product.StockLevel)
				return nil
			})
		},
	})
	return cmd
}

func orderCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Inspect and move orders",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [id]",
		Short: "Show an order with its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd.Context(), opts, func(ctx context.Context, admin *grpc.AdminServiceClient) error {
				order, err := admin.GetOrder(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), order)
			})
		},
	})

	var query service.OrderQuery
	list := &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd.Context(), opts, func(ctx context.Context, admin *grpc.AdminServiceClient) error {
				page, err := admin.ListOrders(ctx, query)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), page)
			})
		},
	}
	list.Flags().StringVarP(&query.Email, "email", "e", "", "only orders placed with this email")
	list.Flags().StringVarP(&query.Status, "status", "s", "", "only orders in this status")
	list.Flags().IntVarP(&query.Page, "page", "p", 1, "page number")
	list.Flags().IntVarP(&query.PageSize, "limit", "n", 20, "orders per page")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "status [id] [status]",
		Short: "Move an order to a new status (processing, shipped, delivered, cancelled)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd.Context(), opts, func(ctx context.Context, admin *grpc.AdminServiceClient) error {
				order, err := admin.UpdateOrderStatus(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", order.ID, order.Status)
				return nil
			})
		},
	})
	return cmd
}

func auditCmd(opts *options) *cobra.Command {
	var limit int64
	cmd := &cobra.Command{
		Use:   "audit [entity-id]",
		Short: "Show the audit trail of an order, product, user or message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd.Context(), opts, func(ctx context.Context, admin *grpc.AdminServiceClient) error {
				logs, err := admin.ListAuditLogs(ctx, args[0], limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, entry := range logs {
					fmt.Fprintf(out, "%s  %-24s %s\n", entry.CreatedAt.Format("2006-01-02 15:04:05"), entry.Action, entry.Service)
				}
				return nil
			})
		},
	}
	cmd.Flags().Int64VarP(&limit, "limit", "n", 50, "maximum entries")
	return cmd
}
