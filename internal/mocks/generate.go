package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/team --output domain/team --outpkg teammock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name MetadataSource --dir ../usecase --output usecase --outpkg usecasemock --filename metadata_source_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name StatsSource --dir ../usecase --output usecase --outpkg usecasemock --filename stats_source_mock.go
