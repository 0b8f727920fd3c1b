package provisioning

const projectCreateMutation = `
mutation projectCreate($input: ProjectCreateInput!) {
	projectCreate(input: $input) {
		id
		name
	}
}`

const projectEnvironmentsQuery = `
query project($id: String!) {
	project(id: $id) {
		environments {
			edges {
				node {
					id
					name
				}
			}
		}
	}
}`

const serviceCreateMutation = `
mutation serviceCreate($input: ServiceCreateInput!) {
	serviceCreate(input: $input) {
		id
		name
	}
}`

const volumeCreateMutation = `
mutation volumeCreate($input: VolumeCreateInput!) {
	volumeCreate(input: $input) {
		id
		name
	}
}`

const variableCollectionUpsertMutation = `
mutation variableCollectionUpsert($input: VariableCollectionUpsertInput!) {
	variableCollectionUpsert(input: $input)
}`

const serviceDomainCreateMutation = `
mutation serviceDomainCreate($input: ServiceDomainCreateInput!) {
	serviceDomainCreate(input: $input) {
		id
		domain
	}
}`

const serviceInstanceDeployMutation = `
mutation serviceInstanceDeploy($serviceId: String!, $environmentId: String!) {
	serviceInstanceDeploy(serviceId: $serviceId, environmentId: $environmentId)
}`
