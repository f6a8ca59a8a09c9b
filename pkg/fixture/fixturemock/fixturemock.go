package fixturemock

//go:generate mockgen -destination mock.go -source fixturemock.go -package fixturemock

// Fixture mirrors fixture.Fixture.
type Fixture interface {
	Setup() error
}

type TeardownFixture interface {
	Fixture
	Teardown() error
}
