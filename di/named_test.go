package di_test

import (
	"errors"
	"testing"

	"github.com/gocrud/inject/di"
)

type Database struct {
	DSN string
}

type ServiceWithNamedDB struct {
	Master *Database `di:"master"`
	Slave  *Database `di:"slave"`
}

type ServiceWithOptional struct {
	Required *Database `di:"master"`
	Optional *Database `di:"missing,?"`
}

type ServiceWithSimpleOptional struct {
	Optional *Database `di:"?"`
}

type ServiceWithCommaOptional struct {
	Optional *Database `di:",?"`
}

type ServiceWithOptionalAlternative struct {
	Optional *Database `di:"optional"`
}

// ServiceWithBrokenOptional 可选依赖存在但它自己的依赖缺失
type ServiceWithBrokenOptional struct {
	Repo *Repository `di:"?"`
}

type Repository struct {
	DB *Database `di:"absent"`
}

func TestNamedInjection(t *testing.T) {
	c := di.New()

	di.MustRegister[*Database](c, di.WithName("master"), di.WithValue(&Database{DSN: "master_dsn"}))
	di.MustRegister[*Database](c, di.WithName("slave"), di.WithValue(&Database{DSN: "slave_dsn"}))
	di.MustRegister[*ServiceWithNamedDB](c)

	svc, err := di.Resolve[*ServiceWithNamedDB](c)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if svc.Master.DSN != "master_dsn" {
		t.Errorf("Expected master DSN, got %s", svc.Master.DSN)
	}
	if svc.Slave.DSN != "slave_dsn" {
		t.Errorf("Expected slave DSN, got %s", svc.Slave.DSN)
	}
}

func TestOptionalInjection(t *testing.T) {
	c := di.New()

	di.MustRegister[*Database](c, di.WithName("master"), di.WithValue(&Database{DSN: "master_dsn"}))
	di.MustRegister[*ServiceWithOptional](c)

	svc, err := di.Resolve[*ServiceWithOptional](c)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if svc.Required == nil {
		t.Error("Required field is nil")
	}
	if svc.Optional != nil {
		t.Error("Optional field should be nil")
	}
}

func TestSimpleOptionalInjection(t *testing.T) {
	c := di.New()
	di.MustRegister[*ServiceWithSimpleOptional](c)
	di.MustRegister[*ServiceWithCommaOptional](c)
	di.MustRegister[*ServiceWithOptionalAlternative](c)

	// di:"?"
	svc1, err := di.Resolve[*ServiceWithSimpleOptional](c)
	if err != nil {
		t.Fatalf("Resolve simple optional failed: %v", err)
	}
	if svc1.Optional != nil {
		t.Error("Optional field should be nil for di:\"?\"")
	}

	// di:",?"
	svc2, err := di.Resolve[*ServiceWithCommaOptional](c)
	if err != nil {
		t.Fatalf("Resolve comma optional failed: %v", err)
	}
	if svc2.Optional != nil {
		t.Error("Optional field should be nil for di:\",?\"")
	}

	// di:"optional"
	svc3, err := di.Resolve[*ServiceWithOptionalAlternative](c)
	if err != nil {
		t.Fatalf("Resolve keyword optional failed: %v", err)
	}
	if svc3.Optional != nil {
		t.Error("Optional field should be nil for di:\"optional\"")
	}
}

func TestSimpleOptionalInjection_WithRegisteredService(t *testing.T) {
	c := di.New()
	db := &Database{DSN: "default"}
	di.MustRegister[*Database](c, di.WithValue(db))
	di.MustRegister[*ServiceWithSimpleOptional](c)

	svc, err := di.Resolve[*ServiceWithSimpleOptional](c)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if svc.Optional != db {
		t.Error("Optional field injected wrong instance")
	}
}

func TestOptionalDoesNotHideTransitiveErrors(t *testing.T) {
	c := di.New()
	di.MustRegister[*Repository](c)
	di.MustRegister[*ServiceWithBrokenOptional](c)

	_, err := di.Resolve[*ServiceWithBrokenOptional](c)
	if !errors.Is(err, di.ErrNotFound) {
		t.Fatalf("Expected not found error, got %v", err)
	}
	var re *di.ResolveError
	if !errors.As(err, &re) || re.Key != di.KeyOf[*Database]() || re.Index != "absent" {
		t.Errorf("Expected missing *Database[absent], got %v", err)
	}
}

func TestNamedResolve(t *testing.T) {
	c := di.New()
	di.MustRegister[*Database](c, di.WithName("db1"), di.WithValue(&Database{DSN: "db1"}))

	db1, err := di.ResolveNamed[*Database](c, "db1")
	if err != nil {
		t.Fatalf("ResolveNamed failed: %v", err)
	}
	if db1.DSN != "db1" {
		t.Errorf("Expected db1, got %s", db1.DSN)
	}

	_, err = di.ResolveNamed[*Database](c, "missing")
	if !errors.Is(err, di.ErrNotFound) {
		t.Errorf("Expected not found for missing named service, got %v", err)
	}
}

func TestResolveOptional(t *testing.T) {
	c := di.New()

	_, ok, err := di.ResolveOptional[*Database](c)
	if err != nil || ok {
		t.Fatalf("Expected (false, nil), got (%v, %v)", ok, err)
	}

	di.MustRegister[*Database](c, di.WithValue(&Database{DSN: "x"}))
	db, ok, err := di.ResolveOptional[*Database](c)
	if err != nil || !ok || db.DSN != "x" {
		t.Fatalf("Expected registered database, got (%v, %v, %v)", db, ok, err)
	}
}
