package service

import (
	"context"
	"errors"
	"time"

	"github.com/Baaaki/buy-sell-store/internal/broker"
	"github.com/Baaaki/buy-sell-store/internal/metrics"
	"github.com/Baaaki/buy-sell-store/internal/models"
	"github.com/Baaaki/buy-sell-store/internal/repository"
	"github.com/Baaaki/buy-sell-store/internal/validation"
	"github.com/Baaaki/buy-sell-store/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateProductInput struct {
	Name         string `json:"name" validate:"required,max=30,productname"`
	Description  string `json:"description" validate:"required"`
	Category     string `json:"category" validate:"required,max=100,category"`
	SupplierCost int64  `json:"supplierCost" validate:"gt=0"`
}

// ProductPatch is a partial product update. Which fields are accepted
// depends on the caller's role.
type ProductPatch struct {
	Name         *string `json:"name" validate:"omitempty,max=30,productname"`
	Description  *string `json:"description" validate:"omitempty,min=1"`
	Category     *string `json:"category" validate:"omitempty,max=100,category"`
	SupplierCost *int64  `json:"supplierCost" validate:"omitempty,gt=0"`
	SellerCost   *int64  `json:"sellerCost" validate:"omitempty,gt=0"`
}

// SellerUpdate is the complete set of fields a seller controls.
type SellerUpdate struct {
	Description string `json:"description" validate:"required"`
	SellerCost  int64  `json:"sellerCost" validate:"gt=0"`
}

type ProductService struct {
	productRepo *repository.ProductRepository
	userRepo    *repository.UserRepository
	events      broker.EventBroker
}

// NewProductService wires the product operations. events may be nil, in
// which case lifecycle events are not published.
func NewProductService(
	productRepo *repository.ProductRepository,
	userRepo *repository.UserRepository,
	events broker.EventBroker,
) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		userRepo:    userRepo,
		events:      events,
	}
}

func (s *ProductService) Create(ctx context.Context, in CreateProductInput, actor Principal) (ProductView, error) {
	if err := actor.requireRole("create products", models.RoleSupplier); err != nil {
		return ProductView{}, err
	}
	if err := validation.Struct(in); err != nil {
		return ProductView{}, err
	}

	supplierID := actor.UserID
	product := &models.Product{
		Name:         in.Name,
		Description:  in.Description,
		Category:     in.Category,
		SupplierCost: in.SupplierCost,
		SupplierID:   &supplierID,
	}

	if err := s.productRepo.CreateProduct(ctx, product); err != nil {
		logger.Log.Error("Failed to create product",
			zap.String("supplier_id", supplierID.String()),
			zap.Error(err),
		)
		return ProductView{}, err
	}

	metrics.ProductsCreatedTotal.WithLabelValues(product.Category).Inc()
	s.publish(ctx, broker.EventProductCreated, product.ID, actor)

	logger.Log.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("supplier_id", supplierID.String()),
		zap.String("category", product.Category),
	)

	return ViewProduct(product, actor.Role)
}

// List returns every non-archived product as seen by role.
func (s *ProductService) List(ctx context.Context, role models.Role) ([]ProductView, error) {
	products, err := s.productRepo.ListActiveProducts(ctx)
	if err != nil {
		logger.Log.Error("Failed to list products", zap.Error(err))
		return nil, err
	}
	return ViewProducts(products, role)
}

func (s *ProductService) Get(ctx context.Context, id uuid.UUID, role models.Role) (ProductView, error) {
	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		return ProductView{}, err
	}
	if product == nil {
		return ProductView{}, productNotFound(id)
	}
	return ViewProduct(product, role)
}

// Update applies a partial update on behalf of actor. Sellers may change
// description and seller cost of products assigned to them; suppliers may
// change everything else on products they supplied.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, patch ProductPatch, actor Principal) (ProductView, error) {
	if err := validation.Struct(patch); err != nil {
		return ProductView{}, err
	}

	switch actor.Role {
	case models.RoleSeller:
		if patch.Name != nil || patch.Category != nil || patch.SupplierCost != nil {
			return ProductView{}, newError(ErrForbiddenRole, "a seller may change only description and sellerCost")
		}
		return s.updateAsSeller(ctx, id, patch, actor)
	case models.RoleSupplier:
		if patch.SellerCost != nil {
			return ProductView{}, newError(ErrForbiddenRole, "a supplier may not set sellerCost")
		}
		return s.updateAsSupplier(ctx, id, patch, actor)
	default:
		return ProductView{}, newError(ErrForbiddenRole, "role %s is not suitable to update products", actor.Role)
	}
}

func (s *ProductService) updateAsSeller(ctx context.Context, id uuid.UUID, patch ProductPatch, actor Principal) (ProductView, error) {
	var product *models.Product

	err := s.productRepo.WithTx(ctx, func(tx *repository.ProductRepository) error {
		p, err := tx.LockProductByID(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return productNotFound(id)
		}

		upd := SellerUpdate{Description: p.Description, SellerCost: p.SellerCost}
		if patch.Description != nil {
			upd.Description = *patch.Description
		}
		if patch.SellerCost != nil {
			upd.SellerCost = *patch.SellerCost
		}

		return s.applySellerUpdate(ctx, tx, p, upd, actor, func(updated *models.Product) { product = updated })
	})
	s.observe("update", err)
	if err != nil {
		return ProductView{}, err
	}

	return ViewProduct(product, actor.Role)
}

// UpdateAsSeller overwrites description and seller cost. Only the seller
// assigned to the product may do it.
func (s *ProductService) UpdateAsSeller(ctx context.Context, id uuid.UUID, upd SellerUpdate, actor Principal) (ProductView, error) {
	if err := actor.requireRole("price products", models.RoleSeller); err != nil {
		return ProductView{}, err
	}
	if err := validation.Struct(upd); err != nil {
		return ProductView{}, err
	}

	var product *models.Product
	err := s.productRepo.WithTx(ctx, func(tx *repository.ProductRepository) error {
		p, err := tx.LockProductByID(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return productNotFound(id)
		}
		return s.applySellerUpdate(ctx, tx, p, upd, actor, func(updated *models.Product) { product = updated })
	})
	s.observe("update", err)
	if err != nil {
		return ProductView{}, err
	}

	return ViewProduct(product, actor.Role)
}

func (s *ProductService) applySellerUpdate(
	ctx context.Context,
	tx *repository.ProductRepository,
	p *models.Product,
	upd SellerUpdate,
	actor Principal,
	done func(*models.Product),
) error {
	if p.SellerID == nil || *p.SellerID != actor.UserID {
		logger.Log.Warn("Seller update denied",
			zap.String("product_id", p.ID.String()),
			zap.String("actor_id", actor.UserID.String()),
		)
		return newError(ErrAccessDenied, "user %s is not the seller of product %s", actor.Login, p.ID)
	}
	if p.Bought() {
		return alreadyBought(p.ID)
	}

	ok, err := tx.UpdateAsSeller(ctx, p.ID, actor.UserID, upd.Description, upd.SellerCost)
	if err != nil {
		return err
	}
	if !ok {
		return newError(ErrAccessDenied, "user %s is not the seller of product %s", actor.Login, p.ID)
	}

	p.Description = upd.Description
	p.SellerCost = upd.SellerCost
	done(p)

	logger.Log.Info("Product priced by seller",
		zap.String("product_id", p.ID.String()),
		zap.String("seller_id", actor.UserID.String()),
		zap.Int64("seller_cost", upd.SellerCost),
	)
	return nil
}

func (s *ProductService) updateAsSupplier(ctx context.Context, id uuid.UUID, patch ProductPatch, actor Principal) (ProductView, error) {
	var product *models.Product

	err := s.productRepo.WithTx(ctx, func(tx *repository.ProductRepository) error {
		p, err := tx.LockProductByID(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return productNotFound(id)
		}
		if p.SupplierID == nil || *p.SupplierID != actor.UserID {
			return newError(ErrAccessDenied, "user %s is not the supplier of product %s", actor.Login, id)
		}

		changes := map[string]any{}
		if patch.Name != nil {
			changes["name"] = *patch.Name
			p.Name = *patch.Name
		}
		if patch.Description != nil {
			changes["description"] = *patch.Description
			p.Description = *patch.Description
		}
		if patch.Category != nil {
			changes["category"] = *patch.Category
			p.Category = *patch.Category
		}
		if patch.SupplierCost != nil {
			if p.Bought() {
				return alreadyBought(id)
			}
			changes["supplier_cost"] = *patch.SupplierCost
			p.SupplierCost = *patch.SupplierCost
		}

		ok, err := tx.UpdateAsSupplier(ctx, id, actor.UserID, changes)
		if err != nil {
			return err
		}
		if !ok {
			return newError(ErrAccessDenied, "user %s is not the supplier of product %s", actor.Login, id)
		}
		product = p
		return nil
	})
	s.observe("update", err)
	if err != nil {
		return ProductView{}, err
	}

	return ViewProduct(product, actor.Role)
}

// Delete removes a product. Only its supplier may delete it.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID, actor Principal) error {
	if err := actor.requireRole("delete products", models.RoleSupplier); err != nil {
		return err
	}

	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		return err
	}
	if product == nil {
		return productNotFound(id)
	}
	if product.SupplierID == nil || *product.SupplierID != actor.UserID {
		return newError(ErrAccessDenied, "user %s is not the supplier of product %s", actor.Login, id)
	}

	deleted, err := s.productRepo.DeleteProduct(ctx, id)
	if err != nil {
		logger.Log.Error("Failed to delete product", zap.String("product_id", id.String()), zap.Error(err))
		return err
	}
	if !deleted {
		return productNotFound(id)
	}

	s.publish(ctx, broker.EventProductDeleted, id, actor)
	logger.Log.Info("Product deleted", zap.String("product_id", id.String()))
	return nil
}

// Archive hides an active product from the public listing.
func (s *ProductService) Archive(ctx context.Context, id uuid.UUID, actor Principal) error {
	return s.setArchived(ctx, id, true, actor)
}

// Restore returns an archived product to the public listing.
func (s *ProductService) Restore(ctx context.Context, id uuid.UUID, actor Principal) error {
	return s.setArchived(ctx, id, false, actor)
}

func (s *ProductService) setArchived(ctx context.Context, id uuid.UUID, archived bool, actor Principal) error {
	op, event := "restore", broker.EventRestored
	if archived {
		op, event = "archive", broker.EventArchived
	}
	if err := actor.requireRole(op+" products", models.RoleSupplier, models.RoleSeller); err != nil {
		return err
	}

	err := s.productRepo.WithTx(ctx, func(tx *repository.ProductRepository) error {
		p, err := tx.LockProductByID(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return productNotFound(id)
		}
		if p.Archived == archived {
			return archiveConflict(id, archived)
		}

		changed, err := tx.SetArchived(ctx, id, archived)
		if err != nil {
			return err
		}
		if !changed {
			return archiveConflict(id, archived)
		}
		return nil
	})
	s.observe(op, err)
	if err != nil {
		s.logFailure(op, id, err)
		return err
	}

	s.publish(ctx, event, id, actor)
	logger.Log.Info("Product archive state changed",
		zap.String("product_id", id.String()),
		zap.Bool("archived", archived),
		zap.String("actor_id", actor.UserID.String()),
	)
	return nil
}

// alreadyBought is returned for any write that would alter a completed sale.
func alreadyBought(id uuid.UUID) error {
	return newError(ErrAlreadyBought, "product %s has already been bought", id)
}

func archiveConflict(id uuid.UUID, archived bool) error {
	if archived {
		return newError(ErrAlreadyArchived, "product %s is already archived", id)
	}
	return newError(ErrNotArchived, "product %s is not archived", id)
}

// AssignSeller makes sellerID the seller of the product, replacing any
// previous seller.
func (s *ProductService) AssignSeller(ctx context.Context, productID, sellerID uuid.UUID, actor Principal) (ProductView, error) {
	if err := actor.requireRole("assign sellers", models.RoleSupplier, models.RoleSeller); err != nil {
		return ProductView{}, err
	}

	seller, err := s.userRepo.GetUserByID(ctx, sellerID)
	if err != nil {
		return ProductView{}, err
	}
	if seller == nil {
		s.observe("assign_seller", ErrUserNotFound)
		return ProductView{}, newError(ErrUserNotFound, "user %s not found", sellerID)
	}
	if seller.Role != models.RoleSeller {
		s.observe("assign_seller", ErrForbiddenRole)
		return ProductView{}, newError(ErrForbiddenRole, "user %s has role %s and cannot sell products", seller.Login, seller.Role)
	}

	var product *models.Product
	err = s.productRepo.WithTx(ctx, func(tx *repository.ProductRepository) error {
		p, err := tx.LockProductByID(ctx, productID)
		if err != nil {
			return err
		}
		if p == nil {
			return productNotFound(productID)
		}
		if p.Bought() {
			return alreadyBought(productID)
		}
		assigned, err := tx.AssignSeller(ctx, productID, sellerID)
		if err != nil {
			return err
		}
		if !assigned {
			return alreadyBought(productID)
		}
		p.SellerID = &sellerID
		product = p
		return nil
	})
	s.observe("assign_seller", err)
	if err != nil {
		s.logFailure("assign_seller", productID, err)
		return ProductView{}, err
	}

	s.publish(ctx, broker.EventSellerAssigned, productID, actor)
	logger.Log.Info("Seller assigned",
		zap.String("product_id", productID.String()),
		zap.String("seller_id", sellerID.String()),
	)

	return ViewProduct(product, actor.Role)
}

// Buy assigns the buyer. The product must be active, have a seller and not
// be bought yet; a purchase is final.
func (s *ProductService) Buy(ctx context.Context, id uuid.UUID, actor Principal) (ProductView, error) {
	if err := actor.requireRole("buy products", models.RoleBuyer); err != nil {
		return ProductView{}, err
	}

	var product *models.Product
	err := s.productRepo.WithTx(ctx, func(tx *repository.ProductRepository) error {
		p, err := tx.LockProductByID(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return productNotFound(id)
		}

		switch {
		case p.Archived:
			return newError(ErrArchivedConflict, "product %s is archived and cannot be bought", id)
		case p.SellerID == nil:
			return newError(ErrNoSellerConflict, "product %s has no seller and cannot be bought", id)
		case p.Bought():
			return alreadyBought(id)
		}

		now := time.Now().UTC()
		bought, err := tx.MarkBought(ctx, id, actor.UserID, now)
		if err != nil {
			return err
		}
		if !bought {
			return alreadyBought(id)
		}

		buyerID := actor.UserID
		p.BuyerID = &buyerID
		p.BoughtAt = &now
		product = p
		return nil
	})
	s.observe("buy", err)
	if err != nil {
		s.logFailure("buy", id, err)
		return ProductView{}, err
	}

	metrics.PurchasedValueTotal.Add(float64(product.SellerCost))
	s.publish(ctx, broker.EventBought, id, actor)

	logger.Log.Info("Product bought",
		zap.String("product_id", id.String()),
		zap.String("buyer_id", actor.UserID.String()),
		zap.Int64("final_cost", product.SellerCost),
	)

	return ViewProduct(product, actor.Role)
}

func productNotFound(id uuid.UUID) error {
	return newError(ErrProductNotFound, "product %s not found", id)
}

// publish notifies live clients. Failures are logged and never fail the
// operation that already committed.
func (s *ProductService) publish(ctx context.Context, t broker.EventType, productID uuid.UUID, actor Principal) {
	if s.events == nil {
		return
	}

	event := broker.ProductEvent{
		Type:      t,
		ProductID: productID.String(),
		ActorID:   actor.UserID.String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		logger.Log.Warn("Failed to publish product event",
			zap.String("type", string(t)),
			zap.String("product_id", productID.String()),
			zap.Error(err),
		)
	}
}

func (s *ProductService) observe(op string, err error) {
	metrics.LifecycleTransitionsTotal.WithLabelValues(op, resultLabel(err)).Inc()
}

func (s *ProductService) logFailure(op string, id uuid.UUID, err error) {
	if IsConflict(err) || IsNotFound(err) || errors.Is(err, ErrAccessDenied) || errors.Is(err, ErrForbiddenRole) {
		logger.Log.Warn("Product operation rejected",
			zap.String("operation", op),
			zap.String("product_id", id.String()),
			zap.Error(err),
		)
		return
	}
	logger.Log.Error("Product operation failed",
		zap.String("operation", op),
		zap.String("product_id", id.String()),
		zap.Error(err),
	)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsConflict(err):
		return "conflict"
	case IsNotFound(err):
		return "not_found"
	case errors.Is(err, ErrAccessDenied), errors.Is(err, ErrForbiddenRole):
		return "denied"
	default:
		return "error"
	}
}
