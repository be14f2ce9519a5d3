package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/identity --output domain/identity --outpkg identitymock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/mismatch --output domain/mismatch --outpkg mismatchmock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/bettingline --output domain/bettingline --outpkg bettinglinemock --filename repository_mock.go
