package brp

// BRP method names as registered by Bevy's RemotePlugin.
const (
	MethodQuery           = "bevy/query"
	MethodGet             = "bevy/get"
	MethodList            = "bevy/list"
	MethodSpawn           = "bevy/spawn"
	MethodDestroy         = "bevy/destroy"
	MethodInsert          = "bevy/insert"
	MethodRemove          = "bevy/remove"
	MethodReparent        = "bevy/reparent"
	MethodGetResource     = "bevy/get_resource"
	MethodInsertResource  = "bevy/insert_resource"
	MethodRemoveResource  = "bevy/remove_resource"
	MethodMutateResource  = "bevy/mutate_resource"
	MethodMutateComponent = "bevy/mutate_component"
	MethodListResources   = "bevy/list_resources"
	MethodRegistrySchema  = "bevy/registry/schema"
	MethodGetWatch        = "bevy/get+watch"
	MethodListWatch       = "bevy/list+watch"
	MethodRPCDiscover     = "rpc.discover"
)

// Methods served by the bevy_brp_extras plugin when the app links it.
const (
	MethodExtrasScreenshot = "brp_extras/screenshot"
	MethodExtrasShutdown   = "brp_extras/shutdown"
)
