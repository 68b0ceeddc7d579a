package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/booklib/internal/clock"
	"github.com/smallbiznis/booklib/internal/config"
	"github.com/smallbiznis/booklib/internal/customer/domain"
	"github.com/smallbiznis/booklib/internal/observability/metrics"
	"github.com/smallbiznis/booklib/pkg/db"
	"github.com/smallbiznis/booklib/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Repo         domain.Repository
	Limits       *config.CustomerLimitsHolder
	Clock        clock.Clock
	Metrics      *metrics.Metrics      `optional:"true"`
	StoreMetrics *metrics.StoreMetrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	repo         domain.Repository
	limits       *config.CustomerLimitsHolder
	clock        clock.Clock
	metrics      *metrics.Metrics
	storeMetrics *metrics.StoreMetrics
}

func New(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.SystemClock{}
	}
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("customer.service"),
		genID:        p.GenID,
		repo:         p.Repo,
		limits:       p.Limits,
		clock:        c,
		metrics:      p.Metrics,
		storeMetrics: p.StoreMetrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	customer, err := req.Build(s.currentLimits())
	if err != nil {
		s.reject(ctx, err)
		return domain.Customer{}, err
	}

	customer.ID = s.genID.Generate()
	customer.CreatedAt = s.clock.Now().UTC().Truncate(time.Microsecond)

	session := db.NewSession(s.db)
	session.Add(&customer)

	done := s.storeMetrics.TrackCommit()
	err = session.Commit(ctx)
	done(err)
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			s.reject(ctx, domain.ErrDuplicateName)
			return domain.Customer{}, domain.ErrDuplicateName
		}
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			s.reject(ctx, verr)
			return domain.Customer{}, verr
		}
		s.log.Error("failed to commit customer", zap.Error(err))
		return domain.Customer{}, fmt.Errorf("create customer: %w", err)
	}

	s.metrics.RecordCustomerCreated(ctx)
	s.log.Info("customer created", zap.String("customer_id", customer.ID.String()))
	return customer, nil
}

func (s *Service) GetByName(ctx context.Context, req domain.GetCustomerRequest) (domain.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || utf8.RuneCountInString(name) > domain.Ceilings().NameMax {
		return domain.Customer{}, domain.ErrInvalidName
	}

	item, err := s.repo.FindByName(ctx, s.db, name)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCustomerRequest) (domain.ListCustomerResponse, error) {
	token := strings.TrimSpace(req.PageToken)
	if token != "" && !validPageToken(token) {
		return domain.ListCustomerResponse{}, domain.ErrInvalidPageToken
	}

	filter := domain.ListCustomerFilter{City: strings.TrimSpace(req.City)}
	pageSize := int32(pagination.NormalizePageSize(int(req.PageSize)))

	total, err := s.repo.Count(ctx, s.db, filter)
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{
		PageToken: token,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(customer *domain.Customer) string {
		next, err := pagination.EncodeCursor(pagination.Cursor{ID: customer.ID.String()})
		if err != nil {
			return ""
		}
		return next
	})
	if len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	customers := make([]domain.Customer, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		customers = append(customers, *item)
	}

	return domain.ListCustomerResponse{
		PageInfo:  *pageInfo,
		Total:     total,
		Customers: customers,
	}, nil
}

func (s *Service) currentLimits() domain.Limits {
	if s.limits == nil {
		return domain.Ceilings()
	}
	return s.limits.Get()
}

// reject records why a registration was refused. Field values are not logged.
func (s *Service) reject(ctx context.Context, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		codes := make([]string, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			s.metrics.RecordCustomerRejected(ctx, f.Err.Error(), f.Field)
			codes = append(codes, f.Field+"="+f.Err.Error())
		}
		s.log.Warn("customer rejected", zap.Strings("fields", codes))
		return
	}

	field := ""
	if errors.Is(err, domain.ErrDuplicateName) {
		field = domain.FieldName
	}
	s.metrics.RecordCustomerRejected(ctx, err.Error(), field)
	s.log.Warn("customer rejected", zap.String("reason", err.Error()))
}

func validPageToken(token string) bool {
	cursor, err := pagination.DecodeCursor(token)
	if err != nil {
		return false
	}
	id, err := strconv.ParseInt(cursor.ID, 10, 64)
	return err == nil && id > 0
}
