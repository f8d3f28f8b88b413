//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package shop

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trpc.group/trpc-go/fptshop-assistant/log"
	"trpc.group/trpc-go/fptshop-assistant/tool"
	"trpc.group/trpc-go/fptshop-assistant/tool/function"
)

// Tool names.
const (
	ToolSearchProducts      = "search_products"
	ToolListOrders          = "list_orders"
	ToolGetOrder            = "get_order"
	ToolPlaceOrder          = "place_order"
	ToolCancelOrder         = "cancel_order"
	ToolCreateSupportTicket = "create_support_ticket"
	ToolCheckAvailability   = "check_availability"
	ToolBookAppointment     = "book_appointment"
	ToolCancelAppointment   = "cancel_appointment"
)

// FieldRecommendedProducts is the state field search_products fills.
const FieldRecommendedProducts = "recommended_products"

const dateLayout = "2006-01-02"

// Service bundles the collaborators behind the shop tools.
type Service struct {
	Catalog      Catalog
	Orders       OrderStore
	Tickets      TicketStore
	Appointments AppointmentBook
	Mailer       Mailer
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewService creates a service with in-memory collaborators around catalog.
func NewService(catalog Catalog) *Service {
	return &Service{
		Catalog:      catalog,
		Orders:       NewMemoryOrders(),
		Tickets:      NewMemoryTickets(),
		Appointments: NewMemoryAppointments(),
		Mailer:       NewOutbox(),
		Now:          time.Now,
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Register adds every shop tool to reg with its sensitivity.
func (s *Service) Register(reg *tool.Registry) error {
	for _, t := range s.SafeTools() {
		if err := reg.Register(t, tool.Safe); err != nil {
			return err
		}
	}
	for _, t := range s.SensitiveTools() {
		if err := reg.Register(t, tool.Sensitive); err != nil {
			return err
		}
	}
	return nil
}

// SafeTools returns the read-only tools.
func (s *Service) SafeTools() []tool.CallableTool {
	return []tool.CallableTool{
		function.NewFunctionTool(s.searchProducts,
			function.WithName(ToolSearchProducts),
			function.WithDescription("Search the FPT Shop catalog by keywords such as model, brand or category, "+
				"optionally under a maximum price in VND.")),
		function.NewFunctionTool(s.listOrders,
			function.WithName(ToolListOrders),
			function.WithDescription("List the signed-in customer's orders, newest first.")),
		function.NewFunctionTool(s.getOrder,
			function.WithName(ToolGetOrder),
			function.WithDescription("Get one of the signed-in customer's orders by ID.")),
		function.NewFunctionTool(s.checkAvailability,
			function.WithName(ToolCheckAvailability),
			function.WithDescription("List free in-store service slots for a date (YYYY-MM-DD).")),
	}
}

// SensitiveTools returns the state-changing tools.
func (s *Service) SensitiveTools() []tool.CallableTool {
	return []tool.CallableTool{
		function.NewFunctionTool(s.placeOrder,
			function.WithName(ToolPlaceOrder),
			function.WithDescription("Place an order for a product. Requires the customer's confirmation.")),
		function.NewFunctionTool(s.cancelOrder,
			function.WithName(ToolCancelOrder),
			function.WithDescription("Cancel one of the customer's orders that has not shipped. Requires confirmation.")),
		function.NewFunctionTool(s.createSupportTicket,
			function.WithName(ToolCreateSupportTicket),
			function.WithDescription("Open an IT support ticket and email the customer a confirmation. Requires confirmation.")),
		function.NewFunctionTool(s.bookAppointment,
			function.WithName(ToolBookAppointment),
			function.WithDescription("Book an in-store service appointment in a free slot. Requires confirmation.")),
		function.NewFunctionTool(s.cancelAppointment,
			function.WithName(ToolCancelAppointment),
			function.WithDescription("Cancel one of the customer's appointments. Requires confirmation.")),
	}
}

// ProductSummary is the product view remembered in conversation state.
type ProductSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

type searchProductsInput struct {
	Query    string `json:"query" description:"Keywords, e.g. 'iphone 15' or 'laptop gaming'"`
	MaxPrice int64  `json:"max_price,omitempty" description:"Maximum price in VND, 0 for no limit"`
}

// SearchProductsResult is the output of search_products.
type SearchProductsResult struct {
	Products []Product `json:"products"`
	Message  string    `json:"message,omitempty"`
}

// StateFields remembers the recommendation so later turns can refer to it.
func (r SearchProductsResult) StateFields() map[string]any {
	summaries := make([]ProductSummary, 0, len(r.Products))
	for _, p := range r.Products {
		summaries = append(summaries, ProductSummary{ID: p.ID, Name: p.Name, Price: p.Price})
	}
	return map[string]any{FieldRecommendedProducts: summaries}
}

func (s *Service) searchProducts(ctx context.Context, in searchProductsInput) (SearchProductsResult, error) {
	if in.MaxPrice < 0 {
		return SearchProductsResult{}, fmt.Errorf("%w: max_price must not be negative", ErrInvalidArgument)
	}
	products, err := s.Catalog.Search(ctx, in.Query, in.MaxPrice, 5)
	if err != nil {
		return SearchProductsResult{}, err
	}
	res := SearchProductsResult{Products: products}
	if len(products) == 0 {
		res.Message = "no matching products"
	}
	return res, nil
}

type listOrdersInput struct {
	UserID string `json:"user_id"`
}

func (s *Service) listOrders(ctx context.Context, in listOrdersInput) ([]Order, error) {
	if in.UserID == "" {
		return nil, ErrUnauthenticated
	}
	orders, err := s.Orders.ListByUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []Order{}
	}
	return orders, nil
}

type getOrderInput struct {
	OrderID string `json:"order_id" description:"Order ID, e.g. ORD-1A2B3C4D5E"`
	UserID  string `json:"user_id"`
}

func (s *Service) getOrder(ctx context.Context, in getOrderInput) (Order, error) {
	return s.ownedOrder(ctx, in.OrderID, in.UserID)
}

func (s *Service) ownedOrder(ctx context.Context, orderID, userID string) (Order, error) {
	if userID == "" {
		return Order{}, ErrUnauthenticated
	}
	o, err := s.Orders.Get(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return Order{}, err
	}
	if o.UserID != userID {
		return Order{}, fmt.Errorf("%w: order %s", ErrForbidden, o.ID)
	}
	return o, nil
}

type placeOrderInput struct {
	ProductID string `json:"product_id" description:"Catalog product ID"`
	Quantity  int    `json:"quantity,omitempty" description:"Number of units, default 1"`
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
}

func (s *Service) placeOrder(ctx context.Context, in placeOrderInput) (Order, error) {
	if in.UserID == "" {
		return Order{}, ErrUnauthenticated
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 0 {
		return Order{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}
	p, err := s.Catalog.Reserve(ctx, in.ProductID, in.Quantity)
	if err != nil {
		return Order{}, err
	}
	o, err := s.Orders.Create(ctx, Order{
		UserID: in.UserID,
		Email:  in.Email,
		Items: []OrderItem{{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  in.Quantity,
			UnitPrice: p.Price,
		}},
		Total:     p.Price * int64(in.Quantity),
		Status:    OrderPlaced,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		if rerr := s.Catalog.Release(ctx, p.ID, in.Quantity); rerr != nil {
			log.Errorf("shop: release stock of %s: %v", p.ID, rerr)
		}
		return Order{}, err
	}
	s.notify(ctx, in.Email, "Xác nhận đơn hàng "+o.ID,
		fmt.Sprintf("Đơn hàng %s: %d x %s, tổng %d VND.", o.ID, in.Quantity, p.Name, o.Total))
	return o, nil
}

type cancelOrderInput struct {
	OrderID string `json:"order_id" description:"Order ID to cancel"`
	UserID  string `json:"user_id"`
}

func (s *Service) cancelOrder(ctx context.Context, in cancelOrderInput) (Order, error) {
	o, err := s.ownedOrder(ctx, in.OrderID, in.UserID)
	if err != nil {
		return Order{}, err
	}
	if o.Status != OrderPlaced {
		return Order{}, fmt.Errorf("%w: order %s is %s", ErrInvalidState, o.ID, o.Status)
	}
	o, err = s.Orders.SetStatus(ctx, o.ID, OrderCancelled)
	if err != nil {
		return Order{}, err
	}
	for _, item := range o.Items {
		if err := s.Catalog.Release(ctx, item.ProductID, item.Quantity); err != nil {
			log.Warnf("shop: release stock of %s: %v", item.ProductID, err)
		}
	}
	return o, nil
}

type createTicketInput struct {
	Subject     string `json:"subject" description:"Short summary of the problem"`
	Description string `json:"description" description:"What happened and what was already tried"`
	UserID      string `json:"user_id"`
	Email       string `json:"email,omitempty"`
}

// TicketResult is the output of create_support_ticket.
type TicketResult struct {
	Ticket   Ticket `json:"ticket"`
	MailSent bool   `json:"mail_sent"`
}

func (s *Service) createSupportTicket(ctx context.Context, in createTicketInput) (TicketResult, error) {
	if in.UserID == "" {
		return TicketResult{}, ErrUnauthenticated
	}
	if strings.TrimSpace(in.Subject) == "" {
		return TicketResult{}, fmt.Errorf("%w: subject is required", ErrInvalidArgument)
	}
	t, err := s.Tickets.Create(ctx, Ticket{
		UserID:      in.UserID,
		Email:       in.Email,
		Subject:     in.Subject,
		Description: in.Description,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return TicketResult{}, err
	}
	sent := s.notify(ctx, in.Email, fmt.Sprintf("[%s] %s", t.ID, t.Subject),
		"Yêu cầu hỗ trợ của bạn đã được tiếp nhận.\n\n"+t.Description)
	return TicketResult{Ticket: t, MailSent: sent}, nil
}

type checkAvailabilityInput struct {
	Date string `json:"date" description:"Date in YYYY-MM-DD"`
}

// AvailabilityResult is the output of check_availability.
type AvailabilityResult struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

func (s *Service) checkAvailability(ctx context.Context, in checkAvailabilityInput) (AvailabilityResult, error) {
	if err := s.validateDate(in.Date); err != nil {
		return AvailabilityResult{}, err
	}
	slots, err := s.Appointments.Available(ctx, in.Date)
	if err != nil {
		return AvailabilityResult{}, err
	}
	return AvailabilityResult{Date: in.Date, Slots: slots}, nil
}

// validateDate accepts today or a later day in YYYY-MM-DD.
func (s *Service) validateDate(date string) error {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidArgument)
	}
	today := s.now().Format(dateLayout)
	if d.Format(dateLayout) < today {
		return fmt.Errorf("%w: %s is in the past", ErrInvalidArgument, date)
	}
	return nil
}

type bookAppointmentInput struct {
	Date   string `json:"date" description:"Date in YYYY-MM-DD"`
	Slot   string `json:"slot" description:"Start time of a free slot, e.g. 09:00"`
	Note   string `json:"note,omitempty" description:"What the visit is about"`
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

func (s *Service) bookAppointment(ctx context.Context, in bookAppointmentInput) (Appointment, error) {
	if in.UserID == "" {
		return Appointment{}, ErrUnauthenticated
	}
	if err := s.validateDate(in.Date); err != nil {
		return Appointment{}, err
	}
	a, err := s.Appointments.Book(ctx, Appointment{
		UserID: in.UserID,
		Email:  in.Email,
		Date:   in.Date,
		Slot:   in.Slot,
		Note:   in.Note,
	})
	if err != nil {
		return Appointment{}, err
	}
	s.notify(ctx, in.Email, "Xác nhận lịch hẹn "+a.ID,
		fmt.Sprintf("Lịch hẹn %s lúc %s ngày %s.", a.ID, a.Slot, a.Date))
	return a, nil
}

type cancelAppointmentInput struct {
	AppointmentID string `json:"appointment_id" description:"Appointment ID to cancel"`
	UserID        string `json:"user_id"`
}

func (s *Service) cancelAppointment(ctx context.Context, in cancelAppointmentInput) (Appointment, error) {
	if in.UserID == "" {
		return Appointment{}, ErrUnauthenticated
	}
	a, err := s.Appointments.Get(ctx, strings.TrimSpace(in.AppointmentID))
	if err != nil {
		return Appointment{}, err
	}
	if a.UserID != in.UserID {
		return Appointment{}, fmt.Errorf("%w: appointment %s", ErrForbidden, a.ID)
	}
	return s.Appointments.Cancel(ctx, a.ID)
}

// notify mails to when it is set. Mail failures are logged, not returned:
// the record already exists.
func (s *Service) notify(ctx context.Context, to, subject, body string) bool {
	if to == "" || s.Mailer == nil {
		return false
	}
	if err := s.Mailer.Send(ctx, Mail{To: to, Subject: subject, Body: body}); err != nil {
		log.Warnf("shop: send mail to %s: %v", to, err)
		return false
	}
	return true
}
